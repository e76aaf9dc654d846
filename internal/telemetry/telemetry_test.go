package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.DatasetUploaded()
	m.DatasetUploaded()
	m.ChartGenerated("bar")
	m.InsightGenerated("mock")
	m.InsightGenerated("existing")
	m.InsightGenerated("mock")
	m.GenerationFailed("openai")

	if got := testutil.ToFloat64(m.uploads); got != 2 {
		t.Errorf("uploads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.charts.WithLabelValues("bar")); got != 1 {
		t.Errorf("bar charts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.insights.WithLabelValues("mock")); got != 2 {
		t.Errorf("mock insights = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("openai")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ChartGenerated("pie")
	m.ObserveRequest("GET", "/api/files", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`sheetsight_charts_generated_total{kind="pie"} 1`,
		`sheetsight_http_request_duration_seconds_count{method="GET",route="/api/files",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.DatasetUploaded()
	if got := testutil.ToFloat64(b.uploads); got != 0 {
		t.Errorf("registries should be independent, got %v", got)
	}
}
