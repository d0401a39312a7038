package models

import (
	"sort"
	"strings"
	"time"
)

// Field names the portal expects on a purchase/sale row
const (
	FieldInvoiceNumber = "INV_NO"
	FieldInvoiceDate   = "INV_DATE"
	FieldItemID        = "ITEM_ID"       // Counterparty TIN, replaced by the portal's internal ID
	FieldTotalAmount   = "TOTAL_AMT"     // Amount in foreign currency (USD)
	FieldAmountKHR     = "AMOUNT_KHR"    // Amount in riel
	FieldAccomAmount   = "ACCOM_AMT"     // Accommodation tax amount
	FieldTaxpayerType  = "TAXPAYER_TYPE" // Injected after identity resolution
)

// Invoice is one flat row of a submission batch keyed by portal field name.
// Rows are treated as read-only; request bodies are always derived copies.
type Invoice map[string]string

// Number returns the trimmed invoice number
func (inv Invoice) Number() string {
	return strings.TrimSpace(inv[FieldInvoiceNumber])
}

// Date returns the raw invoice date string
func (inv Invoice) Date() string {
	return inv[FieldInvoiceDate]
}

// ItemID returns the trimmed counterparty identifier, empty when absent
func (inv Invoice) ItemID() string {
	return strings.TrimSpace(inv[FieldItemID])
}

// Has reports whether the field carries a non-blank value
func (inv Invoice) Has(field string) bool {
	return strings.TrimSpace(inv[field]) != ""
}

// Fields returns the row's field names in sorted order
func (inv Invoice) Fields() []string {
	keys := make([]string, 0, len(inv))
	for k := range inv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TaxpayerType classifies a counterparty for lookup routing
type TaxpayerType int

const (
	TaxpayerRegistered    TaxpayerType = 1 // TIN contains a hyphen
	TaxpayerNonRegistered TaxpayerType = 2
)

// CompanyInfo is the portal's view of a counterparty
type CompanyInfo struct {
	ID           string       `json:"id"`
	TaxpayerType TaxpayerType `json:"taxpayer_type"`
}

// InvoiceOutcome records how a single invoice ended
type InvoiceOutcome struct {
	InvoiceNo string `json:"invoice_no"`
	Message   string `json:"message"`          // Portal payload on success, reason on failure
	Detail    string `json:"detail,omitempty"` // Underlying error text for failures
}

// BatchReport is the terminal artifact of one batch run
type BatchReport struct {
	BatchID        string           `json:"batch_id"`
	Successes      []InvoiceOutcome `json:"success"`
	Failures       []InvoiceOutcome `json:"failed"`
	Summary        string           `json:"message"`
	Total          int              `json:"total"`
	Elapsed        time.Duration    `json:"-"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	SuccessRate    float64          `json:"success_rate"`
	Partial        bool             `json:"partial,omitempty"` // Batch was cut short by its deadline
}

// Processed returns the number of invoices with a recorded outcome
func (r *BatchReport) Processed() int {
	return len(r.Successes) + len(r.Failures)
}
