package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
	"taxfiler/pkg/models"
)

// AmountFields are submitted as numbers; every other field is sent as a string.
var AmountFields = []string{
	models.FieldTotalAmount,
	models.FieldAmountKHR,
	models.FieldAccomAmount,
}

func isAmountField(field string) bool {
	for _, f := range AmountFields {
		if f == field {
			return true
		}
	}
	return false
}

// ParseAmount converts a spreadsheet-formatted amount such as " 1,234.50 "
// into a number.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// BatchFields returns the union of field names across the batch, in order of
// first appearance (sorted within each row). These are the fields copied from
// every invoice and stripped from the captured body skeleton.
func BatchFields(invoices []models.Invoice) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, inv := range invoices {
		for _, k := range inv.Fields() {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	return fields
}

// BuildBody assembles the request body for one invoice. It starts from a copy
// of skeleton, copies every non-blank batch field from the invoice, substitutes
// the resolved company when given, and drops the amount field not supplied.
// Neither skeleton nor inv is modified.
func BuildBody(skeleton map[string]any, inv models.Invoice, fields []string, company *models.CompanyInfo) (map[string]any, error) {
	body := make(map[string]any, len(skeleton)+len(fields)+1)
	for k, v := range skeleton {
		body[k] = v
	}

	for _, field := range fields {
		if !inv.Has(field) {
			continue
		}
		value := inv[field]
		if isAmountField(field) {
			amount, err := ParseAmount(value)
			if err != nil {
				return nil, NewValidationError(inv.Number(), field, value, ErrInvalidAmount)
			}
			body[field] = amount
			continue
		}
		body[field] = strings.TrimSpace(value)
	}

	if company != nil {
		body[models.FieldItemID] = company.ID
		body[models.FieldTaxpayerType] = int(company.TaxpayerType)
	}

	if inv.Has(models.FieldTotalAmount) {
		delete(body, models.FieldAmountKHR)
	} else if inv.Has(models.FieldAmountKHR) {
		delete(body, models.FieldTotalAmount)
	}

	return body, nil
}
