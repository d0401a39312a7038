// Package source reads invoice batches from the formats back-office staff
// keep them in: a JSON array of flat objects, an .xlsx workbook, or any grid
// of rows whose first row names the portal fields.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"taxfiler/pkg/models"
)

var (
	// ErrNotArray is returned when the JSON batch is not an array of objects.
	ErrNotArray = errors.New("invoice batch must be a JSON array of objects")

	// ErrNestedValue is returned when an invoice field holds an object or array.
	ErrNestedValue = errors.New("invoice fields must be scalar values")

	// ErrNoHeader is returned when a row grid has no usable header row.
	ErrNoHeader = errors.New("missing header row")
)

// DecodeJSON reads a JSON array of flat invoice objects. Numbers and booleans
// are kept as their literal text, null fields are dropped.
func DecodeJSON(r io.Reader) ([]models.Invoice, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
		}
		return nil, fmt.Errorf("invalid invoice JSON: %w", err)
	}

	invoices := make([]models.Invoice, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrNotArray)
		}
		inv := make(models.Invoice, len(row))
		for field, value := range row {
			s, ok, err := scalarString(value)
			if err != nil {
				return nil, fmt.Errorf("row %d field %s: %w", i+1, field, err)
			}
			if ok {
				inv[field] = s
			}
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func scalarString(v any) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case json.Number:
		return val.String(), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	default:
		return "", false, ErrNestedValue
	}
}
