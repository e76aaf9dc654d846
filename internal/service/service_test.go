package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/store"
)

type countingMetrics struct {
	uploads int
	charts  []string
}

func (c *countingMetrics) DatasetUploaded()           { c.uploads++ }
func (c *countingMetrics) ChartGenerated(kind string) { c.charts = append(c.charts, kind) }

func newTestService(t *testing.T) (*Service, *countingMetrics) {
	t.Helper()
	st := store.NewMemory()
	m := &countingMetrics{}
	return New(st, insight.NewOrchestrator(st, insight.Unavailable()), WithMetrics(m)), m
}

func salesRows(n int) []dataset.Row {
	regions := []string{"east", "west"}
	rows := make([]dataset.Row, n)
	for i := range rows {
		rows[i] = dataset.Row{
			{Key: "region", Value: dataset.String(regions[i%2])},
			{Key: "sales", Value: dataset.Number(float64(10 * (i + 1)))},
		}
	}
	return rows
}

func upload(t *testing.T, s *Service, user string, rows []dataset.Row) *UploadResult {
	t.Helper()
	res, err := s.Upload(context.Background(), user, UploadInput{Name: "sales.xlsx", Size: 512, Rows: rows})
	require.NoError(t, err)
	return res
}

func TestUploadReturnsPreview(t *testing.T) {
	s, m := newTestService(t)
	res := upload(t, s, "u1", salesRows(12))

	assert.Len(t, res.Preview, PreviewRows)
	assert.Nil(t, res.Dataset.Records)
	assert.Equal(t, 12, res.Dataset.RowCount)
	assert.Equal(t, 2, res.Dataset.ColumnCount)
	assert.Equal(t, []string{"region", "sales"}, res.Dataset.Headers)
	assert.Equal(t, 1, m.uploads)

	stored, err := s.Dataset(context.Background(), "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Records, 12)
}

func TestUploadEmpty(t *testing.T) {
	s, m := newTestService(t)
	_, err := s.Upload(context.Background(), "u1", UploadInput{Name: "empty.xlsx"})
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.Zero(t, m.uploads)
}

func TestGenerateChartDefaultTitle(t *testing.T) {
	s, m := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(4))

	c, err := s.GenerateChart(ctx, "u1", ChartInput{DatasetID: res.Dataset.ID, Kind: "bar", XAxis: "region", YAxis: "sales", Aggregation: "sum", ZAxis: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "sales vs region", c.Title)
	assert.Empty(t, c.Config.ZAxis)
	require.NotNil(t, c.Data.Series)
	assert.Equal(t, []float64{40, 60}, c.Data.Series.Datasets[0].Data)
	assert.Equal(t, []string{"bar"}, m.charts)

	d, err := s.Dataset(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, d.ChartIDs)

	list, err := s.Charts(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGenerateChartErrors(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(2))
	id := res.Dataset.ID

	cases := []struct {
		name string
		in   ChartInput
		want error
	}{
		{"kind", ChartInput{DatasetID: id, Kind: "histogram", XAxis: "region", YAxis: "sales"}, chart.ErrInvalidKind},
		{"aggregation", ChartInput{DatasetID: id, Kind: "bar", XAxis: "region", YAxis: "sales", Aggregation: "median"}, chart.ErrInvalidAggregation},
		{"axis", ChartInput{DatasetID: id, Kind: "bar", XAxis: "nope", YAxis: "sales"}, chart.ErrInvalidAxis},
		{"z axis", ChartInput{DatasetID: id, Kind: "scatter3d", XAxis: "region", YAxis: "sales"}, chart.ErrMissing3DAxis},
		{"foreign dataset", ChartInput{DatasetID: "missing", Kind: "bar", XAxis: "region", YAxis: "sales"}, store.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.GenerateChart(ctx, "u1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := s.GenerateChart(ctx, "u2", ChartInput{DatasetID: id, Kind: "bar", XAxis: "region", YAxis: "sales"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerateInsightOnce(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(3))

	first, created, err := s.GenerateInsight(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, insight.MockModel, first.SourceModel)

	second, created, err := s.GenerateInsight(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.Insight(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, _, err = s.GenerateInsight(ctx, "u2", res.Dataset.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDatasetCascades(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(3))
	id := res.Dataset.ID

	_, err := s.GenerateChart(ctx, "u1", ChartInput{DatasetID: id, Kind: "pie", XAxis: "region", YAxis: "sales", Aggregation: "count"})
	require.NoError(t, err)
	_, _, err = s.GenerateInsight(ctx, "u1", id)
	require.NoError(t, err)

	require.NoError(t, s.DeleteDataset(ctx, "u1", id))
	charts, err := s.Charts(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, charts)
	_, err = s.Insight(ctx, "u1", id)
	assert.ErrorIs(t, err, insight.ErrNotFound)
}

func TestStatsAndUsage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(3))

	sum, err := s.Stats(ctx, "u1", res.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", sum.Filename)
	assert.Equal(t, 3, sum.Statistics["sales"].Count)

	u, err := s.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalFiles)
	assert.Equal(t, int64(512), u.TotalSize)
}

func TestParseAndIngestFile(t *testing.T) {
	_, _, err := Parse("notes.txt", []byte("hi"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	rows, sheet, err := Parse("data.CSV", []byte("a,b\n1,x\n"))
	require.NoError(t, err)
	assert.Empty(t, sheet)
	require.Len(t, rows, 1)
	assert.Equal(t, dataset.Number(1), rows[0][0].Value)

	path := filepath.Join(t.TempDir(), "inbox.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,sales\neast,5\nwest,7\n"), 0644))

	s, _ := newTestService(t)
	res, err := s.IngestFile(context.Background(), "local", path)
	require.NoError(t, err)
	assert.Equal(t, "inbox.csv", res.Dataset.OriginalName)
	assert.Equal(t, "text/csv", res.Dataset.MimeType)
	assert.Equal(t, 2, res.Dataset.RowCount)
}

func TestReport(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	res := upload(t, s, "u1", salesRows(4))
	id := res.Dataset.ID

	in, err := s.Report(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", in.Table.Name)
	assert.Len(t, in.Table.Records, 4)
	assert.Equal(t, 4, in.Summary.RowCount)
	assert.Empty(t, in.Charts)
	assert.Nil(t, in.Insight)

	_, err = s.GenerateChart(ctx, "u1", ChartInput{DatasetID: id, Kind: "bar", XAxis: "region", YAxis: "sales", Title: "first"})
	require.NoError(t, err)
	_, err = s.GenerateChart(ctx, "u1", ChartInput{DatasetID: id, Kind: "pie", XAxis: "region", YAxis: "sales", Aggregation: "sum", Title: "second"})
	require.NoError(t, err)
	_, _, err = s.GenerateInsight(ctx, "u1", id)
	require.NoError(t, err)

	in, err = s.Report(ctx, "u1", id)
	require.NoError(t, err)
	require.Len(t, in.Charts, 2)
	assert.ElementsMatch(t, []string{"first", "second"}, []string{in.Charts[0].Title, in.Charts[1].Title})
	require.NotNil(t, in.Insight)

	_, err = s.Report(ctx, "u2", id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "sales-report.xlsx", ReportName("sales.xlsx"))
	assert.Equal(t, "q1.data-report.xlsx", ReportName("q1.data.csv"))
	assert.Equal(t, "dataset-report.xlsx", ReportName(""))
}
