package services

import (
	"context"

	"taxfiler/pkg/models"
)

// BatchSubmitter defines the interface for replaying a captured portal request
// once per invoice in a batch
type BatchSubmitter interface {
	// Submit extracts the request template from the captured text and submits
	// every invoice sequentially. Fatal input errors return no report; a
	// canceled or expired context returns the partial report with the context error.
	Submit(ctx context.Context, captured string, invoices []models.Invoice) (*models.BatchReport, error)
}
