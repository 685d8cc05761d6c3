// Package export writes extraction results as spreadsheets.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/docex/internal/fields"
)

// SheetName is the worksheet holding the results.
const SheetName = "Results"

// maxCellChars is the Excel limit for a single cell.
const maxCellChars = 32767

// Row is one extracted document.
type Row struct {
	File    string
	Method  string
	Fields  fields.Values
	RawText string
}

// Columns returns the header row: file, method, the field keys in
// first-seen order across rows, then raw_text.
func Columns(rows []Row) []string {
	cols := []string{"file", "method"}
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, k := range r.Fields.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return append(cols, "raw_text")
}

// WriteXLSX writes rows as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty one behind.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	cols := Columns(rows)
	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	last := len(cols)
	for r, row := range rows {
		line := r + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			return f.SetCellValue(SheetName, cell, v)
		}

		if err := write(1, row.File); err != nil {
			return fmt.Errorf("xlsx row %d: %w", line, err)
		}
		if err := write(2, row.Method); err != nil {
			return fmt.Errorf("xlsx row %d: %w", line, err)
		}
		for c := 3; c < last; c++ {
			v, ok := row.Fields.Get(cols[c-1])
			if !ok || v == nil {
				continue
			}
			if err := write(c, cellValue(v)); err != nil {
				return fmt.Errorf("xlsx row %d: %w", line, err)
			}
		}
		if err := write(last, truncate(row.RawText, maxCellChars)); err != nil {
			return fmt.Errorf("xlsx row %d: %w", line, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(last)
	_ = f.SetColWidth(SheetName, "A", "A", 32)
	_ = f.SetColWidth(SheetName, "B", "B", 16)
	_ = f.SetColWidth(SheetName, lastCol, lastCol, 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// cellValue turns a decoded JSON value into something a cell can hold.
func cellValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if fl, err := x.Float64(); err == nil {
			return fl
		}
		return x.String()
	case string, bool, float64, int, int64:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
