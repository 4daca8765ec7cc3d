package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	gohook "github.com/robotn/gohook"
	"github.com/spf13/cobra"
)

// recordedEvent is one captured input event for building a coordinates file.
type recordedEvent struct {
	T      float64 `json:"t"`
	Type   string  `json:"type"`
	X      int     `json:"x,omitempty"`
	Y      int     `json:"y,omitempty"`
	Button string  `json:"button,omitempty"`
	Name   string  `json:"name,omitempty"`
}

type recording struct {
	CreatedAt string          `json:"created_at"`
	Events    []recordedEvent `json:"events"`
}

const (
	rawcodeF12 = 123
	rawcodeEsc = 27

	rightButton = 2
)

func newRecordCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record clicks into a JSON trace for building a coordinates file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordTrace(outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "camino.json", "Output JSON file")
	return cmd
}

// recordTrace captures global mouse clicks until F12. ESC inserts a marker,
// useful for separating workflow phases while clicking through the UI.
func recordTrace(outPath string) error {
	fmt.Printf("Recording clicks to %s. Finish with F12, ESC inserts a marker.\n", outPath)

	rec := recording{CreatedAt: time.Now().Format(time.RFC3339)}
	start := time.Now()

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("cannot hook input events")
	}
	defer gohook.End()

	for ev := range evChan {
		switch ev.Kind {
		case gohook.MouseDown:
			button := "left"
			if ev.Button == rightButton {
				button = "right"
			}
			rec.Events = append(rec.Events, recordedEvent{
				T:      time.Since(start).Seconds(),
				Type:   "mouse_click",
				X:      int(ev.X),
				Y:      int(ev.Y),
				Button: button,
			})
			fmt.Printf("  click %s (%d, %d)\n", button, ev.X, ev.Y)
		case gohook.KeyDown:
			if ev.Rawcode == rawcodeF12 {
				fmt.Println("F12 detected, finishing")
				return writeRecording(outPath, rec)
			}
			if ev.Rawcode == rawcodeEsc {
				rec.Events = append(rec.Events, recordedEvent{
					T:    time.Since(start).Seconds(),
					Type: "marker",
					Name: "ESC",
				})
				fmt.Println("  marker")
			}
		}
	}

	return writeRecording(outPath, rec)
}

func writeRecording(path string, rec recording) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	fmt.Printf("Saved %d events to %s\n", len(rec.Events), path)
	return nil
}
