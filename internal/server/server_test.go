package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/service"
	"github.com/klytics/sheetsight/internal/store"
	"github.com/klytics/sheetsight/internal/telemetry"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t       *testing.T
	handler http.Handler
	metrics *telemetry.Metrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	st := store.NewMemory()
	m := telemetry.New()
	orch := insight.NewOrchestrator(st, insight.Unavailable(), insight.WithRecorder(m))
	svc := service.New(st, orch, service.WithMetrics(m))
	opts = append([]Option{WithMetrics(m.Handler(), m)}, opts...)
	return &harness{t: t, handler: New(svc, opts...).Handler(), metrics: m}
}

func (h *harness) do(method, path, user string, body io.Reader, contentType string) (int, response) {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func (h *harness) json(method, path, user string, v any) (int, response) {
	h.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(h.t, err)
		body = bytes.NewReader(b)
	}
	return h.do(method, path, user, body, "application/json")
}

func (h *harness) upload(user, name string, content []byte) (int, response) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(h.t, err)
	_, err = fw.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())
	return h.do(http.MethodPost, "/api/files/upload", user, &buf, mw.FormDataContentType())
}

func (h *harness) uploadSales(user string) string {
	h.t.Helper()
	code, resp := h.upload(user, "sales.csv", []byte("region,sales\neast,10\neast,20\nwest,5\n"))
	require.Equal(h.t, http.StatusCreated, code, resp.Message)
	var view uploadView
	require.NoError(h.t, json.Unmarshal(resp.Data, &view))
	return view.FileID
}

func xlsxBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRequiresUser(t *testing.T) {
	h := newHarness(t)
	code, resp := h.json(http.MethodGet, "/api/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHarness(t)
	code, resp := h.json(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Server is running", resp.Message)

	code, resp = h.json(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", resp.Message)
}

func TestUploadXLSX(t *testing.T) {
	h := newHarness(t)
	rows := [][]any{{"month", "revenue"}}
	for i := 1; i <= 12; i++ {
		rows = append(rows, []any{time.Month(i).String(), i * 100})
	}
	code, resp := h.upload("u1", "revenue.xlsx", xlsxBytes(t, rows))
	require.Equal(t, http.StatusCreated, code, resp.Message)
	assert.Equal(t, "File uploaded and parsed successfully", resp.Message)

	var view struct {
		FileID   string           `json:"fileId"`
		RowCount int              `json:"rowCount"`
		Headers  []string         `json:"headers"`
		Preview  []map[string]any `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.NotEmpty(t, view.FileID)
	assert.Equal(t, 12, view.RowCount)
	assert.Equal(t, []string{"month", "revenue"}, view.Headers)
	require.Len(t, view.Preview, 10)
	assert.Equal(t, float64(100), view.Preview[0]["revenue"])
}

func TestUploadErrors(t *testing.T) {
	h := newHarness(t)

	code, resp := h.upload("u1", "empty.csv", []byte("a,b\n"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Excel file is empty", resp.Message)

	code, _ = h.upload("u1", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = h.do(http.MethodPost, "/api/files/upload", "u1", strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please upload a file", resp.Message)
}

func TestUploadTooLarge(t *testing.T) {
	h := newHarness(t, WithMaxUpload(64))
	code, _ := h.upload("u1", "big.csv", []byte("a\n"+strings.Repeat("1\n", 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}

func TestFileLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.uploadSales("u1")

	code, resp := h.json(http.MethodGet, "/api/files", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)

	code, _ = h.json(http.MethodGet, "/api/files/"+id, "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = h.json(http.MethodGet, "/api/files/"+id+"/summary", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	var sum struct {
		Statistics map[string]struct {
			Min, Max, Avg float64
			Count         int
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sum))
	assert.Equal(t, 3, sum.Statistics["sales"].Count)
	assert.InDelta(t, 11.67, sum.Statistics["sales"].Avg, 0.01)

	code, resp = h.json(http.MethodGet, "/api/files/stats/summary", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	var usage usageView
	require.NoError(t, json.Unmarshal(resp.Data, &usage))
	assert.Equal(t, 1, usage.TotalFiles)
	require.NotNil(t, usage.RecentFile)
	assert.Equal(t, "sales.csv", usage.RecentFile.OriginalName)

	code, _ = h.json(http.MethodDelete, "/api/files/"+id, "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp = h.json(http.MethodDelete, "/api/files/"+id, "u1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "File not found", resp.Message)
}

func TestGenerateChart(t *testing.T) {
	h := newHarness(t)
	id := h.uploadSales("u1")

	code, resp := h.json(http.MethodPost, "/api/charts/generate", "u1", map[string]string{
		"fileId": id, "chartType": "Pie", "xAxis": "region", "yAxis": "sales", "aggregation": "avg",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var c struct {
		ID        string `json:"id"`
		ChartType string `json:"chartType"`
		Title     string `json:"title"`
		ChartData struct {
			Labels   []string `json:"labels"`
			Datasets []struct {
				Data            []float64 `json:"data"`
				BackgroundColor []string  `json:"backgroundColor"`
			} `json:"datasets"`
		} `json:"chartData"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &c))
	assert.Equal(t, "pie", c.ChartType)
	assert.Equal(t, "sales vs region", c.Title)
	assert.Equal(t, []string{"east", "west"}, c.ChartData.Labels)
	assert.Equal(t, []float64{15, 5}, c.ChartData.Datasets[0].Data)
	assert.Len(t, c.ChartData.Datasets[0].BackgroundColor, 2)

	code, resp = h.json(http.MethodGet, "/api/charts?fileId="+id, "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *resp.Count)

	code, _ = h.json(http.MethodGet, "/api/charts/"+c.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = h.json(http.MethodDelete, "/api/charts/"+c.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp = h.json(http.MethodGet, "/api/charts/"+c.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Chart not found", resp.Message)
}

func TestGenerateChartErrors(t *testing.T) {
	h := newHarness(t)
	id := h.uploadSales("u1")

	cases := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{"missing fields", map[string]string{"fileId": id}, http.StatusBadRequest, ""},
		{"bad kind", map[string]string{"fileId": id, "chartType": "histogram", "xAxis": "region", "yAxis": "sales"}, http.StatusBadRequest, ""},
		{"bad axis", map[string]string{"fileId": id, "chartType": "bar", "xAxis": "city", "yAxis": "sales"}, http.StatusBadRequest, "Invalid axis selection"},
		{"missing z", map[string]string{"fileId": id, "chartType": "bar3d", "xAxis": "region", "yAxis": "sales"}, http.StatusBadRequest, "Invalid Z-axis selection for 3D chart"},
		{"unknown file", map[string]string{"fileId": "missing", "chartType": "bar", "xAxis": "region", "yAxis": "sales"}, http.StatusNotFound, "File not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := h.json(http.MethodPost, "/api/charts/generate", "u1", tc.body)
			assert.Equal(t, tc.status, code)
			assert.False(t, resp.Success)
			if tc.message != "" {
				assert.Equal(t, tc.message, resp.Message)
			}
		})
	}

	code, resp := h.do(http.MethodPost, "/api/charts/generate", "u1", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please provide fileId, chartType, xAxis, and yAxis", resp.Message)
}

func TestInsights(t *testing.T) {
	h := newHarness(t)
	id := h.uploadSales("u1")

	code, resp := h.json(http.MethodGet, "/api/insights/"+id, "u1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No insights found for this file", resp.Message)

	code, resp = h.json(http.MethodPost, "/api/insights/"+id, "u1", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Insights generated successfully", resp.Message)
	var first insight.Record
	require.NoError(t, json.Unmarshal(resp.Data, &first))
	assert.Equal(t, insight.MockModel, first.SourceModel)
	assert.Equal(t, id, first.DatasetID)

	code, resp = h.json(http.MethodPost, "/api/insights/"+id, "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Insights already generated", resp.Message)
	var again insight.Record
	require.NoError(t, json.Unmarshal(resp.Data, &again))
	assert.Equal(t, first.ID, again.ID)

	code, resp = h.json(http.MethodGet, "/api/insights", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *resp.Count)

	code, _ = h.json(http.MethodPost, "/api/insights/"+id, "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.uploadSales("u1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	body := rec.Body.String()
	assert.Contains(t, body, "sheetsight_datasets_uploaded_total 1")
	assert.Contains(t, body, `route="/api/files/upload"`)
}

func TestFileReport(t *testing.T) {
	h := newHarness(t)
	id := h.uploadSales("u1")
	code, _ := h.json(http.MethodPost, "/api/charts/generate", "u1", map[string]string{
		"fileId": id, "chartType": "bar", "xAxis": "region", "yAxis": "sales", "aggregation": "sum",
	})
	require.Equal(t, http.StatusCreated, code)

	req := httptest.NewRequest(http.MethodGet, "/api/files/"+id+"/report", nil)
	req.Header.Set(UserHeader, "u1")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MimeType(".xlsx"), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-report.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Data", "1 sales vs region"}, f.GetSheetList())

	code, resp := h.json(http.MethodGet, "/api/files/"+id+"/report", "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "File not found", resp.Message)
}
