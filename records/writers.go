package records

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"
)

// ResultsWriter appends successful rows to the results file: the original
// columns plus the copied location. The file is opened, written, and closed
// per record so a hard kill loses at most the in-flight row.
type ResultsWriter struct {
	Path   string
	Fields []string // original input columns, location appended on write
}

func NewResultsWriter(path string, inputFields []string) *ResultsWriter {
	fields := make([]string, 0, len(inputFields)+1)
	fields = append(fields, inputFields...)
	fields = append(fields, LocationColumn)
	return &ResultsWriter{Path: path, Fields: fields}
}

// Append writes one success row, emitting the header first if the file is
// new or empty. The location has newlines flattened to spaces.
func (w *ResultsWriter) Append(rec Record, location string) error {
	needHeader := true
	if st, err := os.Stat(w.Path); err == nil && st.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(w.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = OutputDelimiter

	if needHeader {
		if err := cw.Write(w.Fields); err != nil {
			return fmt.Errorf("write results header: %w", err)
		}
	}

	row := make([]string, len(w.Fields))
	for i, field := range w.Fields {
		if field == LocationColumn {
			row[i] = flatten(location)
			continue
		}
		row[i] = rec.Row[field]
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write result row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// FailuresWriter appends one tab-separated line per failed attempt:
// dni, reason, timestamp.
type FailuresWriter struct {
	Path string
}

func NewFailuresWriter(path string) *FailuresWriter {
	return &FailuresWriter{Path: path}
}

func (w *FailuresWriter) Append(dni, reason string) error {
	f, err := os.OpenFile(w.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open failures file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\n", dni, reason, time.Now().Format("2006-01-02 15:04:05"))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write failure row: %w", err)
	}
	return nil
}
