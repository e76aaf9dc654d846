// Package report assembles a dataset, its statistics, saved charts and
// insight into one .xlsx workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/formats/xlsx"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/stats"
)

// maxSheetName is Excel's limit on worksheet names.
const maxSheetName = 31

// Chart is one saved chart to include.
type Chart struct {
	Title string
	Kind  chart.Kind
	Data  *chart.Result
}

// Input is everything a report covers. Charts and Insight are optional.
type Input struct {
	Table   *dataset.Dataset
	Summary *stats.Summary
	Charts  []Chart
	Insight *insight.Record
}

// Build lays the report out as sheets: Summary, Data, one sheet per chart,
// then Insights when present.
func Build(in Input) *xlsx.Workbook {
	wb := &xlsx.Workbook{}
	wb.Sheets = append(wb.Sheets, summarySheet(in.Summary), dataSheet(in.Table))

	used := map[string]bool{"summary": true, "data": true, "insights": true}
	for i, c := range in.Charts {
		name := uniqueName(sheetName(fmt.Sprintf("%d %s", i+1, c.Title)), used)
		wb.Sheets = append(wb.Sheets, xlsx.ChartSheet(name, c.Data))
	}

	if in.Insight != nil {
		wb.Sheets = append(wb.Sheets, insightSheet(in.Insight))
	}
	return wb
}

// Write encodes the report for in to w.
func Write(w io.Writer, in Input) error {
	return xlsx.Write(w, Build(in))
}

func summarySheet(s *stats.Summary) xlsx.Sheet {
	sheet := xlsx.Sheet{Name: "Summary"}
	sheet.Rows = append(sheet.Rows,
		[]any{"file", s.Filename},
		[]any{"rows", s.RowCount},
		[]any{"columns", s.ColumnCount},
		[]any{},
		[]any{"column", "count", "min", "max", "avg"},
	)
	for _, h := range s.NumericColumns() {
		c := s.Statistics[h]
		sheet.Rows = append(sheet.Rows, []any{h, c.Count, c.Min, c.Max, c.Avg})
	}
	return sheet
}

func dataSheet(ds *dataset.Dataset) xlsx.Sheet {
	sheet := xlsx.Sheet{Name: "Data"}
	header := make([]any, len(ds.Headers))
	for i, h := range ds.Headers {
		header[i] = h
	}
	sheet.Rows = append(sheet.Rows, header)
	for _, r := range ds.Records {
		row := make([]any, len(ds.Headers))
		for i, h := range ds.Headers {
			row[i] = cell(r.Get(h))
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func insightSheet(rec *insight.Record) xlsx.Sheet {
	sheet := xlsx.Sheet{Name: "Insights"}
	sheet.Rows = append(sheet.Rows,
		[]any{"section", "title", "value", "description"},
		[]any{"summary", "", "", rec.Summary},
	)
	for _, f := range rec.KeyFindings {
		sheet.Rows = append(sheet.Rows, []any{"finding", f.Title, f.Value, f.Description})
	}
	for _, t := range rec.Trends {
		sheet.Rows = append(sheet.Rows, []any{"trend", "", "", t})
	}
	for _, r := range rec.Recommendations {
		sheet.Rows = append(sheet.Rows, []any{"recommendation", "", "", r})
	}
	sheet.Rows = append(sheet.Rows, []any{"source", rec.SourceModel, rec.GeneratedAt.UTC().Format("2006-01-02 15:04:05"), ""})
	return sheet
}

func cell(v dataset.Value) any {
	if n, ok := v.Num(); ok {
		return n
	}
	if s, ok := v.Text(); ok {
		return s
	}
	return nil
}

// sheetName strips characters Excel forbids in sheet names and truncates.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(strings.Trim(s, "'"))
	if r := []rune(s); len(r) > maxSheetName {
		s = strings.TrimSpace(string(r[:maxSheetName]))
	}
	if s == "" {
		return "Chart"
	}
	return s
}

func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
