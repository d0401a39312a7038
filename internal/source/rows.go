package source

import (
	"fmt"
	"strings"

	"taxfiler/pkg/models"
)

// FromRows converts a grid whose first row holds field names into invoices.
// Blank cells are left out of the invoice and fully blank rows are skipped.
func FromRows(rows [][]string) ([]models.Invoice, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool)
	named := 0
	for i, cell := range rows[0] {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q in header row", name)
		}
		seen[name] = true
		header[i] = name
		named++
	}
	if named == 0 {
		return nil, ErrNoHeader
	}

	invoices := make([]models.Invoice, 0, len(rows)-1)
	for _, row := range rows[1:] {
		inv := make(models.Invoice)
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			inv[header[i]] = cell
		}
		if len(inv) == 0 {
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}
