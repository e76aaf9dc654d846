// Package dataset holds the in-memory model of an uploaded table: ordered
// headers plus records keyed by header, and the numeric coercion rule shared
// by charting and statistics.
package dataset

import (
	"errors"
)

// ErrEmptyDataset is returned by Infer when there are no rows to infer from.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Field is one key/value pair of a Row.
type Field struct {
	Key   string
	Value Value
}

// Row is a record as produced by a spreadsheet reader, with keys in column
// order. Empty cells are present with a Null value.
type Row []Field

// Record maps a header to its cell. A missing header reads as Null.
type Record map[string]Value

// Get returns the cell for header h, or Null when absent.
func (r Record) Get(h string) Value {
	if r == nil {
		return Null()
	}
	return r[h]
}

// Dataset is an uploaded table. Headers are unique and ordered as first
// observed; every record's keys are a subset of Headers.
type Dataset struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Records []Record `json:"records"`
}

// Infer builds a Dataset from reader rows. Headers are the keys of the first
// row in their original order. Keys in later rows that are not headers are
// dropped.
func Infer(name string, rows []Row) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	headers := make([]string, 0, len(rows[0]))
	known := make(map[string]bool, len(rows[0]))
	for _, f := range rows[0] {
		if known[f.Key] {
			continue
		}
		known[f.Key] = true
		headers = append(headers, f.Key)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(row))
		for _, f := range row {
			if known[f.Key] {
				rec[f.Key] = f.Value
			}
		}
		records[i] = rec
	}

	return &Dataset{Name: name, Headers: headers, Records: records}, nil
}

// RowCount returns the number of records.
func (d *Dataset) RowCount() int { return len(d.Records) }

// ColumnCount returns the number of headers.
func (d *Dataset) ColumnCount() int { return len(d.Headers) }

// HasHeader reports whether h is one of the dataset's headers.
func (d *Dataset) HasHeader(h string) bool {
	for _, x := range d.Headers {
		if x == h {
			return true
		}
	}
	return false
}

// Column returns the cells of header h in row order.
func (d *Dataset) Column(h string) []Value {
	out := make([]Value, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec.Get(h)
	}
	return out
}

// Preview returns at most n leading records. The slice shares storage with
// the dataset and must not be modified.
func (d *Dataset) Preview(n int) []Record {
	if n < 0 {
		n = 0
	}
	if n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}
