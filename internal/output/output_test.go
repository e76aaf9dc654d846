package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/service"
	"github.com/klytics/sheetsight/internal/stats"
)

func init() {
	color.NoColor = true
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, "stats", map[string]int{"rows": 3}); err != nil {
		t.Fatal(err)
	}
	var got JSONResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !got.OK || got.Command != "stats" || got.Version == "" {
		t.Errorf("unexpected envelope: %+v", got)
	}
}

func TestPrintJSONError(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONError(&buf, "chart", errors.New("bad axis"), ExitUserError); err != nil {
		t.Fatal(err)
	}
	var got JSONResult
	json.Unmarshal(buf.Bytes(), &got)
	if got.OK || got.Error != "bad axis" || got.Code != ExitUserError {
		t.Errorf("unexpected envelope: %+v", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("open: %w", os.ErrNotExist), ExitUserError},
		{fmt.Errorf("x: %w", chart.ErrInvalidAxis), ExitUserError},
		{service.ErrEmptyFile, ExitUserError},
		{errors.New("disk on fire"), ExitSystemError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Infer("sales.csv", []dataset.Row{
		{{Key: "region", Value: dataset.String("east")}, {Key: "sales", Value: dataset.Number(10)}},
		{{Key: "region", Value: dataset.String("west")}, {Key: "sales", Value: dataset.Null()}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestRecords(t *testing.T) {
	ds := sample(t)
	var buf bytes.Buffer
	NewWriter(&buf).Records(ds.Headers, ds.Records)
	out := buf.String()
	for _, want := range []string{"region", "east", "10", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Summary(stats.Summarize(sample(t)))
	out := buf.String()
	if !strings.Contains(out, "2 rows, 2 columns") || !strings.Contains(out, "sales") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestChart(t *testing.T) {
	res, err := chart.Derive(sample(t), chart.Request{Kind: chart.Bar, XAxis: "region", YAxis: "sales"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	NewWriter(&buf).Chart("sales vs region", res)
	out := buf.String()
	if !strings.Contains(out, "sales vs region") || !strings.Contains(out, "west") {
		t.Errorf("unexpected chart:\n%s", out)
	}
}

func TestInsight(t *testing.T) {
	rec := &insight.Record{
		Summary:         "All good.",
		KeyFindings:     []insight.Finding{{Title: "Top", Value: "east", Description: "leader"}},
		Trends:          []string{"up"},
		Recommendations: []string{},
		SourceModel:     insight.MockModel,
		GeneratedAt:     time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	NewWriter(&buf).Insight(rec)
	out := buf.String()
	for _, want := range []string{"All good.", "Top: east", "Trends", insight.MockModel} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Recommendations") {
		t.Error("empty sections should be omitted")
	}
}
