// Package invoice validates purchase/sale invoice rows and builds the request
// bodies submitted to the e-filing portal.
//
// Validation happens at two levels:
//   - Structural checks (ValidateStructure, ValidateBatch): invoice number,
//     exactly one of TOTAL_AMT / AMOUNT_KHR, numeric amounts. A failure here
//     means the input file is broken and the batch must not be submitted.
//   - Date checks (ValidateDate): INV_DATE must be YYYY-MM-DD and every row in
//     a batch must share one year-month reporting period. A failure skips the
//     row only.
//
// Amount fields (TOTAL_AMT, AMOUNT_KHR, ACCOM_AMT) accept thousands separators
// and surrounding whitespace and are submitted as JSON numbers.
package invoice
