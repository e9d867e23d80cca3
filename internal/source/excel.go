package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExcelSource reads residents from the first sheet of a workbook. Row 1 holds
// column names. Cells are read raw, so dates arrive as Excel serial numbers
// unless the workbook stores them as text.
type ExcelSource struct {
	path   string
	logger *zap.Logger
}

func NewExcelSource(path string, logger *zap.Logger) *ExcelSource {
	return &ExcelSource{path: path, logger: logger}
}

func (s *ExcelSource) Name() string { return "excel" }

func (s *ExcelSource) Fetch(_ context.Context) Result {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("resident workbook not found, using empty resident list", zap.String("path", s.path))
			return Empty(s.Name(), SpreadsheetFields)
		}
		return Failed(s.Name(), SpreadsheetFields, err)
	}
	defer f.Close()

	rows, err := ReadWorkbook(f)
	if err != nil {
		s.logger.Error("failed to read resident workbook", zap.String("path", s.path), zap.Error(err))
		return Failed(s.Name(), SpreadsheetFields, err)
	}
	s.logger.Info("read resident workbook", zap.String("path", s.path), zap.Int("rows", len(rows)))
	return OK(s.Name(), SpreadsheetFields, rows)
}

// ReadWorkbook converts the first sheet of an xlsx stream into rows keyed by
// header name. Blank lines are skipped.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := Row{}
		for i, v := range line {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			row[header[i]] = v
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
