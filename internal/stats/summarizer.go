// Package stats computes per-column statistics over a dataset and packages
// them, with a short preview, as the payload for insight generation.
package stats

import (
	"github.com/klytics/sheetsight/internal/dataset"
)

// SampleSize is the number of leading records included in a Summary.
const SampleSize = 5

// ColumnStats summarizes the numeric values of one column.
type ColumnStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// Summary is the input to insight generation.
type Summary struct {
	Filename    string                 `json:"filename"`
	RowCount    int                    `json:"rowCount"`
	ColumnCount int                    `json:"columnCount"`
	Headers     []string               `json:"headers"`
	SampleData  []dataset.Record       `json:"sampleData"`
	Statistics  map[string]ColumnStats `json:"statistics"`
}

// Columns computes statistics for every header with at least one value that
// coerces to a number. Values that fail are skipped, never zeroed.
func Columns(ds *dataset.Dataset) map[string]ColumnStats {
	out := make(map[string]ColumnStats)
	for _, h := range ds.Headers {
		var (
			st    ColumnStats
			total float64
		)
		for _, rec := range ds.Records {
			n, ok := dataset.Coerce(rec.Get(h))
			if !ok {
				continue
			}
			if st.Count == 0 || n < st.Min {
				st.Min = n
			}
			if st.Count == 0 || n > st.Max {
				st.Max = n
			}
			total += n
			st.Count++
		}
		if st.Count == 0 {
			continue
		}
		st.Avg = total / float64(st.Count)
		out[h] = st
	}
	return out
}

// Summarize builds the insight payload for ds.
func Summarize(ds *dataset.Dataset) *Summary {
	return &Summary{
		Filename:    ds.Name,
		RowCount:    ds.RowCount(),
		ColumnCount: ds.ColumnCount(),
		Headers:     ds.Headers,
		SampleData:  ds.Preview(SampleSize),
		Statistics:  Columns(ds),
	}
}

// NumericColumns returns the headers that have statistics, in header order.
func (s *Summary) NumericColumns() []string {
	cols := make([]string, 0, len(s.Statistics))
	for _, h := range s.Headers {
		if _, ok := s.Statistics[h]; ok {
			cols = append(cols, h)
		}
	}
	return cols
}
