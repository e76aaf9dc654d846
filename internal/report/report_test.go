package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/stats"
)

func salesInput(t *testing.T) Input {
	t.Helper()
	ds, err := dataset.Infer("sales.csv", []dataset.Row{
		{{Key: "region", Value: dataset.String("east")}, {Key: "sales", Value: dataset.Number(10)}},
		{{Key: "region", Value: dataset.String("east")}, {Key: "sales", Value: dataset.Number(20)}},
		{{Key: "region", Value: dataset.String("west")}, {Key: "sales", Value: dataset.Null()}},
	})
	require.NoError(t, err)
	return Input{Table: ds, Summary: stats.Summarize(ds)}
}

func TestBuildMinimal(t *testing.T) {
	wb := Build(salesInput(t))
	require.Len(t, wb.Sheets, 2)
	assert.Equal(t, "Summary", wb.Sheets[0].Name)
	assert.Equal(t, "Data", wb.Sheets[1].Name)

	data := wb.Sheets[1].Rows
	require.Len(t, data, 4)
	assert.Equal(t, []any{"region", "sales"}, data[0])
	assert.Equal(t, []any{"east", 10.0}, data[1])
	assert.Equal(t, []any{"west", nil}, data[3])

	summary := wb.Sheets[0].Rows
	assert.Equal(t, []any{"rows", 3}, summary[1])
	assert.Equal(t, []any{"sales", 2, 10.0, 20.0, 15.0}, summary[len(summary)-1])
}

func TestWriteFullReport(t *testing.T) {
	in := salesInput(t)
	res, err := chart.Derive(in.Table, chart.Request{Kind: chart.Bar, XAxis: "region", YAxis: "sales", Aggregation: chart.Sum})
	require.NoError(t, err)
	in.Charts = []Chart{
		{Title: "sales vs region", Kind: chart.Bar, Data: res},
		{Title: "weird: [name]/with*chars?", Kind: chart.Bar, Data: res},
	}
	in.Insight = &insight.Record{
		Summary:         "East leads.",
		KeyFindings:     []insight.Finding{{Title: "Top", Value: "east", Description: "30 total"}},
		Trends:          []string{"growing"},
		Recommendations: []string{"expand west"},
		SourceModel:     insight.MockModel,
		GeneratedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	require.Len(t, names, 5)
	assert.Equal(t, "1 sales vs region", names[2])
	assert.False(t, strings.ContainsAny(names[3], "[]:*?/\\"), names[3])
	assert.Equal(t, "Insights", names[4])

	rows, err := f.GetRows(names[2])
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "30"}, rows[1])

	ins, err := f.GetRows("Insights")
	require.NoError(t, err)
	assert.Equal(t, []string{"summary", "", "", "East leads."}, ins[1])
	assert.Equal(t, "finding", ins[2][0])
	assert.Equal(t, "mock", ins[len(ins)-1][1])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Chart", sheetName("  "))
	assert.Equal(t, "a b", sheetName("a/b"))
	long := strings.Repeat("x", 40)
	assert.Len(t, sheetName(long), maxSheetName)
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{"summary": true}
	assert.Equal(t, "Summary (2)", uniqueName("Summary", used))
	assert.Equal(t, "summary (3)", uniqueName("summary", used))

	long := strings.Repeat("y", maxSheetName)
	used[strings.ToLower(long)] = true
	got := uniqueName(long, used)
	assert.Len(t, got, maxSheetName)
	assert.True(t, strings.HasSuffix(got, " (2)"))
}
