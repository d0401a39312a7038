package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"taxfiler/pkg/models"
)

// ReadXLSX reads invoices from a workbook sheet, or from the first sheet when
// sheet is empty. Cells are read with their display formatting, so INV_DATE
// columns should be text or formatted as yyyy-mm-dd.
func ReadXLSX(r io.Reader, sheet string) ([]models.Invoice, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	invoices, err := FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return invoices, nil
}
