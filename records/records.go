// Package records handles the batch's durable edges: the delimited input
// file, the resume progress set, and the append-only result/failure files.
package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Candidate column names for the identity number, matched case-insensitively.
var dniColumns = []string{"dni", "documento", "doc", "nro_documento"}

// LocationColumn is appended to the original columns in the results file.
const LocationColumn = "Ubicacion"

// OutputDelimiter is fixed for result files regardless of input delimiter,
// so the progress set can always be read back.
const OutputDelimiter = ';'

// Record is one immutable input row. Row preserves every original column for
// pass-through to the results file.
type Record struct {
	DNI  string
	Name string
	Row  map[string]string
}

// Input is a loaded and schema-validated batch.
type Input struct {
	Records    []Record
	Fields     []string
	DNIColumn  string
	NameColumn string
	Delimiter  rune
}

// DetectDelimiter picks `;` or `,` by character frequency in a sample.
func DetectDelimiter(sample []byte) rune {
	if bytes.Count(sample, []byte(";")) > bytes.Count(sample, []byte(",")) {
		return ';'
	}
	return ','
}

// Load reads the input file, detects its delimiter, locates the DNI and name
// columns, and returns the rows whose DNI is non-empty. Schema problems are
// fatal: they must surface before the first UI action.
func Load(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	sample := data
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	delimiter := DetectDelimiter(sample)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse input file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}

	fields := rows[0]
	dniCol, nameCol := findColumns(fields)
	if dniCol == "" {
		return nil, fmt.Errorf("no DNI column in %s (looked for %s), columns: %s",
			path, strings.Join(dniColumns, "/"), strings.Join(fields, ", "))
	}
	if nameCol == "" {
		return nil, fmt.Errorf("no name column in %s (need one containing 'nombre' or 'cliente'), columns: %s",
			path, strings.Join(fields, ", "))
	}

	input := &Input{
		Fields:     fields,
		DNIColumn:  dniCol,
		NameColumn: nameCol,
		Delimiter:  delimiter,
	}

	for _, row := range rows[1:] {
		m := make(map[string]string, len(fields))
		for i, field := range fields {
			if i < len(row) {
				m[field] = row[i]
			}
		}
		dni := strings.TrimSpace(m[dniCol])
		if dni == "" {
			continue
		}
		input.Records = append(input.Records, Record{
			DNI:  dni,
			Name: strings.TrimSpace(m[nameCol]),
			Row:  m,
		})
	}

	return input, nil
}

func findColumns(fields []string) (dniCol, nameCol string) {
	for _, col := range fields {
		lower := strings.ToLower(col)
		for _, candidate := range dniColumns {
			if lower == candidate {
				dniCol = col
			}
		}
		if strings.Contains(lower, "nombre") || strings.Contains(lower, "cliente") {
			nameCol = col
		}
	}
	return dniCol, nameCol
}

// LoadProgress returns the DNIs already present in an earlier results file at
// the same path, so a resumed run skips completed records. A missing file
// means a fresh run.
func LoadProgress(path, dniColumn string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress from %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = OutputDelimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse existing results %s: %w", path, err)
	}

	done := map[string]struct{}{}
	if len(rows) == 0 {
		return done, nil
	}

	dniIdx := -1
	for i, col := range rows[0] {
		if strings.EqualFold(col, dniColumn) {
			dniIdx = i
			break
		}
	}
	if dniIdx < 0 {
		return done, nil
	}

	for _, row := range rows[1:] {
		if dniIdx < len(row) {
			if dni := strings.TrimSpace(row[dniIdx]); dni != "" {
				done[dni] = struct{}{}
			}
		}
	}
	return done, nil
}
