package invoice

import (
	"errors"
	"fmt"
)

// Structural errors. Any of these makes the whole batch untrustworthy.
var (
	// ErrAmountConflict is returned when both TOTAL_AMT and AMOUNT_KHR are set.
	ErrAmountConflict = errors.New("both TOTAL_AMT and AMOUNT_KHR are set; only one amount field may be provided")

	// ErrAmountMissing is returned when neither TOTAL_AMT nor AMOUNT_KHR is set.
	ErrAmountMissing = errors.New("neither TOTAL_AMT nor AMOUNT_KHR is set; one amount field is required")

	// ErrInvalidAmount is returned when an amount field is not a number.
	ErrInvalidAmount = errors.New("amount is not a valid number")

	// ErrMissingInvoiceNumber is returned when INV_NO is blank.
	ErrMissingInvoiceNumber = errors.New("missing invoice number")
)

// Per-invoice date rejections. The invoice is skipped and the batch continues.
var (
	// ErrInvalidDate is returned when INV_DATE is not a YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invoice date is not in YYYY-MM-DD format")

	// ErrPeriodMismatch is returned when INV_DATE falls outside the batch period.
	ErrPeriodMismatch = errors.New("invoice date is outside the batch period")
)

// ValidationError ties a validation failure to the offending row and field.
type ValidationError struct {
	Index     int // Zero-based position in the batch, -1 when unknown
	InvoiceNo string
	Field     string
	Value     interface{}
	Err       error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invoice %q (row %d): field %s: %v (value: %v)", e.InvoiceNo, e.Index+1, e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("invoice %q: field %s: %v (value: %v)", e.InvoiceNo, e.Field, e.Err, e.Value)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError for an invoice outside a batch.
func NewValidationError(invoiceNo, field string, value interface{}, err error) *ValidationError {
	return &ValidationError{
		Index:     -1,
		InvoiceNo: invoiceNo,
		Field:     field,
		Value:     value,
		Err:       err,
	}
}
