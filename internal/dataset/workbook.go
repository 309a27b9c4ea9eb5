package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/DeafMist/incident-radar/internal/models"
)

// ReadWorkbook parses the first sheet of an .xlsx export with the same column
// rules as ReadInput.
func ReadWorkbook(r io.Reader, source string) ([]models.RawDocument, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet %s, expected %s", ErrMissingColumn, sheet, strings.Join(RequiredInputColumns, ", "))
	}

	tbl, err := newTable(rows[0], RequiredInputColumns)
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		tbl.rows = append(tbl.rows, row)
	}
	return tbl.rawDocuments(source), nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
