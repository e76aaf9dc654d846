package xlsx

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
)

// writeFixture saves a workbook built with excelize directly so cell types
// are the ones Excel would produce.
func writeFixture(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestReadFileTypes(t *testing.T) {
	path := writeFixture(t, [][]any{
		{"region", "sales", "active"},
		{"east", 10, true},
		{"west", 2.5, false},
	})

	table, err := ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if table.Sheet != "Sheet1" {
		t.Errorf("expected sheet Sheet1, got %q", table.Sheet)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	first := table.Rows[0]
	if first[0].Key != "region" || first[0].Value != dataset.String("east") {
		t.Errorf("unexpected first field %+v", first[0])
	}
	if first[1].Value != dataset.Number(10) {
		t.Errorf("expected numeric 10, got %v", first[1].Value)
	}
	if first[2].Value != dataset.String("true") {
		t.Errorf("expected bool as text, got %v", first[2].Value)
	}
	if table.Rows[1][1].Value != dataset.Number(2.5) {
		t.Errorf("expected 2.5, got %v", table.Rows[1][1].Value)
	}
}

func TestReadFileBlankCellsAndRows(t *testing.T) {
	path := writeFixture(t, [][]any{
		{"a", "b"},
		{"x", nil},
		{nil, nil},
		{"y", 3},
	})

	table, err := ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("blank row should be skipped, got %d rows", len(table.Rows))
	}
	if !table.Rows[0][1].Value.IsNull() {
		t.Errorf("empty cell should be null, got %v", table.Rows[0][1].Value)
	}
	if len(table.Rows[0]) != 2 {
		t.Errorf("every row should carry all headers, got %d fields", len(table.Rows[0]))
	}
}

func TestReadFileUnknownSheet(t *testing.T) {
	path := writeFixture(t, [][]any{{"a"}, {1}})
	if _, err := ReadFile(path, "Missing"); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestReadFileNotFound(t *testing.T) {
	if _, err := ReadFile("/nonexistent/file.xlsx", ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadBytesGarbage(t *testing.T) {
	if _, err := ReadBytes([]byte("not a workbook"), ""); err == nil {
		t.Error("expected error for invalid workbook bytes")
	}
}

func TestHeaderKeys(t *testing.T) {
	got := HeaderKeys([]string{"name", "", "name", " ", "name_1", "name"}, 7)
	want := []string{"name", "__EMPTY", "name_1", "__EMPTY_1", "name_1_1", "name_2", "__EMPTY_2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderKeys = %v, want %v", got, want)
	}
}

func TestWriteChartSheetRoundTrip(t *testing.T) {
	res := &chart.Result{Series: &chart.Series2D{
		Labels: []dataset.Value{dataset.String("east"), dataset.String("west")},
		Datasets: []chart.DataSeries{{Label: "sales", Data: []float64{30, 5}}},
	}}

	path := filepath.Join(t.TempDir(), "chart.xlsx")
	if err := WriteFile(&Workbook{Sheets: []Sheet{ChartSheet("Chart", res)}}, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	table, err := ReadFile(path, "Chart")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0][0].Key != "label" || table.Rows[0][1].Key != "sales" {
		t.Errorf("unexpected header keys %+v", table.Rows[0])
	}
	if table.Rows[0][1].Value != dataset.Number(30) {
		t.Errorf("expected 30, got %v", table.Rows[0][1].Value)
	}
}

func TestChartSheet3D(t *testing.T) {
	res := &chart.Result{Plot: &chart.Trace3D{Traces: []chart.Trace{{
		X: []chart.AxisValue{chart.Numeric(1), chart.Categorical("b")},
		Y: []float64{2, 3},
		Z: []float64{4, 5},
	}}}}

	sheet := ChartSheet("Plot", res)
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected header plus 2 points, got %d rows", len(sheet.Rows))
	}
	if sheet.Rows[1][0] != 1.0 || sheet.Rows[2][0] != "b" {
		t.Errorf("unexpected x cells %v %v", sheet.Rows[1][0], sheet.Rows[2][0])
	}
}
