package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file.xlsx> [more.xlsx ...]",
		Short: "Convert spreadsheets to semicolon-delimited CSV next to the source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := convertFile(path); err != nil {
					color.Red("[X] %s: %v", path, err)
					failed++
					continue
				}
			}
			fmt.Printf("Conversion done: %d ok, %d failed\n", len(args)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed to convert", failed)
			}
			return nil
		},
	}
}

// convertFile writes the first sheet of an .xlsx as <name>.csv with `;` as
// delimiter, the format the run command expects.
func convertFile(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return fmt.Errorf("no sheets in %s", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %q is empty", sheet)
	}

	// Pad short rows to the header width so every record has all columns.
	width := len(rows[0])
	csvPath := strings.TrimSuffix(path, ".xlsx") + ".csv"

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.Comma = ';'
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	color.Green("[OK] %s -> %s", path, csvPath)
	fmt.Printf("  rows: %d, columns: %d\n", len(rows)-1, width)
	return nil
}
