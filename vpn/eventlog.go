package vpn

import (
	"fmt"
	"log"
	"os"
	"time"
)

// EventLog appends timestamped free-text lines to the session's connectivity
// log. The file is opened and closed per line so a hard kill never loses more
// than the line being written.
type EventLog struct {
	Path string
}

func NewEventLog(path string) *EventLog {
	return &EventLog{Path: path}
}

// Printf appends one formatted, timestamped line. Logging failures are
// reported but never interrupt processing.
func (l *EventLog) Printf(format string, args ...any) {
	if l == nil || l.Path == "" {
		return
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("vpn: cannot open event log %s: %v", l.Path, err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		log.Printf("vpn: cannot write event log: %v", err)
	}
}
