package batch

import (
	"fmt"
	"time"

	"taxfiler/pkg/models"
)

// aggregator accumulates outcomes for one batch call. It is owned by a single
// run and only appended to from the orchestrating goroutine.
type aggregator struct {
	total     int
	started   time.Time
	successes []models.InvoiceOutcome
	failures  []models.InvoiceOutcome
}

func newAggregator(total int, started time.Time) *aggregator {
	return &aggregator{
		total:     total,
		started:   started,
		successes: []models.InvoiceOutcome{},
		failures:  []models.InvoiceOutcome{},
	}
}

func (a *aggregator) succeed(invoiceNo, payload string) {
	a.successes = append(a.successes, models.InvoiceOutcome{
		InvoiceNo: invoiceNo,
		Message:   payload,
	})
}

func (a *aggregator) fail(invoiceNo, reason string, cause error) {
	outcome := models.InvoiceOutcome{
		InvoiceNo: invoiceNo,
		Message:   reason,
	}
	if cause != nil {
		outcome.Detail = cause.Error()
	}
	a.failures = append(a.failures, outcome)
}

func (a *aggregator) report(batchID string, finished time.Time, partial bool) *models.BatchReport {
	elapsed := finished.Sub(a.started)
	if elapsed < 0 {
		elapsed = 0
	}

	report := &models.BatchReport{
		BatchID:        batchID,
		Successes:      a.successes,
		Failures:       a.failures,
		Total:          a.total,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
		SuccessRate:    SuccessRate(len(a.successes), a.total),
		Partial:        partial,
	}
	report.Summary = Summary(report)
	return report
}

// SuccessRate returns succeeded as a percentage of total, 0 for an empty batch
func SuccessRate(succeeded, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(succeeded) / float64(total) * 100
}

// Summary renders the human-readable line shown with a report
func Summary(r *models.BatchReport) string {
	summary := fmt.Sprintf("Processed %d of %d invoices: %d succeeded, %d failed in %.2fs (success rate %.2f%%)",
		r.Processed(), r.Total, len(r.Successes), len(r.Failures), r.Elapsed.Seconds(), r.SuccessRate)
	if r.Partial {
		summary += "; batch stopped before completion"
	}
	return summary
}
