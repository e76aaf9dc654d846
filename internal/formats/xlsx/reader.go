// Package xlsx reads spreadsheets into dataset rows and exports chart data
// back to .xlsx workbooks.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsight/internal/dataset"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// Table is the parsed content of one worksheet.
type Table struct {
	Sheet string
	Rows  []dataset.Row
}

// ReadFile parses the named sheet of an .xlsx file, or the first sheet when
// sheet is empty.
func ReadFile(path, sheet string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s (is this a valid .xlsx file?): %w", path, err)
	}
	defer f.Close()

	return readTable(f, sheet)
}

// ReadBytes parses workbook bytes such as an HTTP upload.
func ReadBytes(data []byte, sheet string) (*Table, error) {
	return Read(bytes.NewReader(data), sheet)
}

// Read parses a workbook from r.
func Read(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readTable(f, sheet)
}

func readTable(f *excelize.File, sheet string) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found; available sheets: %v", sheet, sheets)
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}

	width := 0
	for _, cells := range raw {
		width = max(width, len(cells))
	}

	t := &Table{Sheet: sheet}
	var headers []string
	for r, cells := range raw {
		if blank(cells) {
			continue
		}
		if headers == nil {
			headers = HeaderKeys(cells, width)
			continue
		}
		row := make(dataset.Row, len(headers))
		for c, key := range headers {
			v := dataset.Null()
			if c < len(cells) && cells[c] != "" {
				v = cellValue(f, sheet, c+1, r+1, cells[c])
			}
			row[c] = dataset.Field{Key: key, Value: v}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cellValue maps a raw cell to a dataset value. Numeric cells, including
// date serials, become numbers; booleans become "true"/"false".
func cellValue(f *excelize.File, sheet string, col, row int, raw string) dataset.Value {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return dataset.String(raw)
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return dataset.String(raw)
	}
	switch typ {
	case excelize.CellTypeBool:
		return dataset.String(strconv.FormatBool(raw == "1" || strings.EqualFold(raw, "true")))
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeFormula, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return dataset.Number(n)
		}
	}
	return dataset.String(raw)
}

// HeaderKeys turns a header row into unique record keys, padding to width
// columns. Blank headers become __EMPTY, __EMPTY_1, ... and repeated names
// get _1, _2 suffixes.
func HeaderKeys(cells []string, width int) []string {
	width = max(width, len(cells))
	keys := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int)
	for i := range keys {
		base := ""
		if i < len(cells) {
			base = strings.TrimSpace(cells[i])
		}
		if base == "" {
			base = "__EMPTY"
		}
		key := base
		for used[key] {
			suffix[base]++
			key = fmt.Sprintf("%s_%d", base, suffix[base])
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
