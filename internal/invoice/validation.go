package invoice

import (
	"errors"
	"time"

	"taxfiler/pkg/models"
)

const dateLayout = "2006-01-02"

// ValidateStructure checks the shape of a single invoice: an invoice number,
// exactly one of TOTAL_AMT and AMOUNT_KHR, and numeric amount fields.
func ValidateStructure(inv models.Invoice) error {
	no := inv.Number()
	if no == "" {
		return NewValidationError(no, models.FieldInvoiceNumber, inv[models.FieldInvoiceNumber], ErrMissingInvoiceNumber)
	}

	hasTotal := inv.Has(models.FieldTotalAmount)
	hasKHR := inv.Has(models.FieldAmountKHR)
	switch {
	case hasTotal && hasKHR:
		return NewValidationError(no, models.FieldTotalAmount+"/"+models.FieldAmountKHR, nil, ErrAmountConflict)
	case !hasTotal && !hasKHR:
		return NewValidationError(no, models.FieldTotalAmount+"/"+models.FieldAmountKHR, nil, ErrAmountMissing)
	}

	for _, field := range AmountFields {
		if !inv.Has(field) {
			continue
		}
		if _, err := ParseAmount(inv[field]); err != nil {
			return NewValidationError(no, field, inv[field], ErrInvalidAmount)
		}
	}

	return nil
}

// ValidateBatch runs ValidateStructure over every invoice and returns the first
// failure annotated with its row index.
func ValidateBatch(invoices []models.Invoice) error {
	for i, inv := range invoices {
		if err := ValidateStructure(inv); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Index = i
			}
			return err
		}
	}
	return nil
}

// ValidateDate checks INV_DATE and returns its year-month period. The first
// invoice with a valid date establishes the batch period; pass "" for it.
// Later invoices must fall in the same period.
func ValidateDate(inv models.Invoice, batchPeriod string) (string, error) {
	raw := inv.Date()
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", NewValidationError(inv.Number(), models.FieldInvoiceDate, raw, ErrInvalidDate)
	}

	period := raw[:7]
	if batchPeriod != "" && period != batchPeriod {
		return "", NewValidationError(inv.Number(), models.FieldInvoiceDate, raw, ErrPeriodMismatch)
	}
	return period, nil
}
