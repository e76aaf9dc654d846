// Package csv reads comma-separated uploads into dataset rows using the
// same header rules as the xlsx reader.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/formats/xlsx"
)

// ReadRecords parses r. The first non-blank line is the header row; blank
// lines are skipped and empty cells become null. Cells that parse as a
// float become numbers.
func ReadRecords(r io.Reader) ([]dataset.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var lines [][]string
	width := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse CSV: %w", err)
		}
		if blank(rec) {
			continue
		}
		lines = append(lines, rec)
		width = max(width, len(rec))
	}
	if len(lines) == 0 {
		return nil, nil
	}

	headers := xlsx.HeaderKeys(lines[0], width)
	rows := make([]dataset.Row, 0, len(lines)-1)
	for _, rec := range lines[1:] {
		row := make(dataset.Row, len(headers))
		for i, key := range headers {
			v := dataset.Null()
			if i < len(rec) {
				v = cell(rec[i])
			}
			row[i] = dataset.Field{Key: key, Value: v}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(s string) dataset.Value {
	if s == "" {
		return dataset.Null()
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return dataset.Number(n)
	}
	return dataset.String(s)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
