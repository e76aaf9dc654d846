package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
)

// Sheet is one worksheet to write. Cells may be strings, numbers or nil.
type Sheet struct {
	Name string
	Rows [][]any
}

// Workbook is a set of sheets to write.
type Workbook struct {
	Sheets []Sheet
}

// WriteFile creates a new .xlsx file from wb. The first row of every sheet
// is written in bold.
func WriteFile(wb *Workbook, path string) error {
	f, err := build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// Write encodes wb as .xlsx to w.
func Write(w io.Writer, wb *Workbook) error {
	f, err := build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return nil
}

func build(wb *Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not create header style: %w", err)
	}

	for i, sheet := range wb.Sheets {
		if err := writeSheet(f, i, sheet, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, i int, sheet Sheet, bold int) error {
	sheetName := sheet.Name
	if sheetName == "" {
		sheetName = fmt.Sprintf("Sheet%d", i+1)
	}

	if i == 0 {
		if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
			return fmt.Errorf("could not rename sheet: %w", err)
		}
	} else if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("could not create sheet %q: %w", sheetName, err)
	}

	for rowIdx, row := range sheet.Rows {
		cellName, err := excelize.CoordinatesToCellName(1, rowIdx+1)
		if err != nil {
			return fmt.Errorf("invalid cell coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cellName, &row); err != nil {
			return fmt.Errorf("could not write row %d of %q: %w", rowIdx+1, sheetName, err)
		}
		if rowIdx == 0 && len(row) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(row), 1)
			if err := f.SetCellStyle(sheetName, "A1", end, bold); err != nil {
				return fmt.Errorf("could not style header of %q: %w", sheetName, err)
			}
		}
	}
	return nil
}

// ChartSheet lays out derived chart data as a table: one label or point
// per row. 2D series get a label column plus one column per series; 3D
// traces get x, y, z columns.
func ChartSheet(name string, res *chart.Result) Sheet {
	sheet := Sheet{Name: name}
	switch {
	case res == nil:
	case res.Plot != nil:
		sheet.Rows = append(sheet.Rows, []any{"x", "y", "z"})
		for _, tr := range res.Plot.Traces {
			for i := range tr.X {
				sheet.Rows = append(sheet.Rows, []any{axisCell(tr.X[i]), tr.Y[i], tr.Z[i]})
			}
		}
	case res.Series != nil:
		header := []any{"label"}
		for _, ds := range res.Series.Datasets {
			header = append(header, ds.Label)
		}
		sheet.Rows = append(sheet.Rows, header)
		for i, label := range res.Series.Labels {
			row := []any{valueCell(label)}
			for _, ds := range res.Series.Datasets {
				if i < len(ds.Data) {
					row = append(row, ds.Data[i])
				} else {
					row = append(row, nil)
				}
			}
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet
}

func valueCell(v dataset.Value) any {
	if n, ok := v.Num(); ok {
		return n
	}
	if s, ok := v.Text(); ok {
		return s
	}
	return nil
}

func axisCell(a chart.AxisValue) any {
	if n, ok := a.Num(); ok {
		return n
	}
	if a.IsNull() {
		return nil
	}
	return a.String()
}
