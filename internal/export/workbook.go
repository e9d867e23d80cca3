// Package export renders admin tables as styled xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType of every export.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	titleRow      = 1
	timestampRow  = 2
	headerRow     = 4
	firstDataRow  = 5
	maxColWidth   = 50
	colWidthExtra = 3
)

// Table is one sheet: a title banner, a generation timestamp, a header row
// and the data below it.
type Table struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]any
}

type styles struct {
	title, timestamp, header, cell, stripe int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"0066CC"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.timestamp, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 10},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&st.cell, &excelize.Style{
			Border:    border,
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		}},
		{&st.stripe, &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"E7E6E6"}, Pattern: 1},
			Border:    border,
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, err
		}
		*d.dst = id
	}
	return st, nil
}

// Render builds the workbook for t.
func Render(t Table, now time.Time) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("export %q: no columns", t.Title)
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), t.Sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return nil, err
	}
	banner := []struct {
		row    int
		value  string
		style  int
		height float64
	}{
		{titleRow, t.Title, st.title, 30},
		{timestampRow, "Generated on " + now.Format("January 02, 2006 at 03:04 PM"), st.timestamp, 20},
	}
	for _, b := range banner {
		first := fmt.Sprintf("A%d", b.row)
		last := fmt.Sprintf("%s%d", lastCol, b.row)
		if err := f.MergeCell(t.Sheet, first, last); err != nil {
			return nil, fmt.Errorf("failed to merge %s:%s: %w", first, last, err)
		}
		if err := f.SetCellValue(t.Sheet, first, b.value); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(t.Sheet, first, last, b.style); err != nil {
			return nil, err
		}
		if err := f.SetRowHeight(t.Sheet, b.row, b.height); err != nil {
			return nil, err
		}
	}

	widths := make([]int, len(t.Headers))
	for col, h := range t.Headers {
		if err := setCell(f, t.Sheet, col+1, headerRow, h, st.header); err != nil {
			return nil, fmt.Errorf("failed to set header %q: %w", h, err)
		}
		widths[col] = utf8.RuneCountInString(h)
	}
	if err := f.SetRowHeight(t.Sheet, headerRow, 25); err != nil {
		return nil, err
	}

	for i, row := range t.Rows {
		rowNum := firstDataRow + i
		style := st.cell
		if rowNum%2 == 0 {
			style = st.stripe
		}
		for col := range t.Headers {
			var v any
			if col < len(row) {
				v = row[col]
			}
			if err := setCell(f, t.Sheet, col+1, rowNum, v, style); err != nil {
				return nil, fmt.Errorf("failed to set cell at row %d, col %d: %w", rowNum, col+1, err)
			}
			if v != nil {
				if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
					widths[col] = n
				}
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(t.Sheet, col, col, float64(min(w+colWidthExtra, maxColWidth))); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(t.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if value != nil {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

// Filename is "<prefix>_export_YYYYMMDD_HHMMSS.xlsx".
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_export_%s.xlsx", prefix, now.Format("20060102_150405"))
}
