package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"camino-lote/records"
)

func newExtractCmd() *cobra.Command {
	var codes []string
	var outPath string
	cmd := &cobra.Command{
		Use:   "extract <resultados.csv>",
		Short: "Extract result rows whose address matches given postal codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extractByPostalCode(args[0], codes, outPath)
		},
	}
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "Postal codes to match (comma-separated)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output TSV (default extract_<timestamp>.tsv)")
	_ = cmd.MarkFlagRequired("codes")
	return cmd
}

// extractByPostalCode filters a results file down to the rows whose location
// contains one of the given postal codes, with or without the province
// letter prefix.
func extractByPostalCode(inputPath string, codes []string, outPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read results file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = records.OutputDelimiter
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parse results file: %w", err)
	}
	if len(rows) < 1 {
		return fmt.Errorf("results file %s is empty", inputPath)
	}

	locIdx := -1
	for i, col := range rows[0] {
		if col == records.LocationColumn {
			locIdx = i
		}
	}
	if locIdx < 0 {
		return fmt.Errorf("no %s column in %s", records.LocationColumn, inputPath)
	}

	patterns := make([]*regexp.Regexp, 0, len(codes))
	for _, code := range codes {
		patterns = append(patterns, regexp.MustCompile(`\b[A-Z]?`+regexp.QuoteMeta(code)+`\b`))
	}

	if outPath == "" {
		outPath = "extract_" + time.Now().Format(fileTimestampFormat) + ".tsv"
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	matched := 0
	for _, row := range rows[1:] {
		if locIdx >= len(row) {
			continue
		}
		location := row[locIdx]
		for _, pattern := range patterns {
			if pattern.MatchString(location) {
				if _, err := fmt.Fprintf(out, "%s\n", strings.Join(row, "\t")); err != nil {
					return err
				}
				matched++
				break
			}
		}
	}

	fmt.Printf("%d of %d rows matched -> %s\n", matched, len(rows)-1, outPath)
	return nil
}
