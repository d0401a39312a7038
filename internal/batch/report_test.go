package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 60.0, SuccessRate(3, 5))
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 100.0, SuccessRate(2, 2))
}

func TestAggregatorReport(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	agg := newAggregator(5, start)
	agg.succeed("A-1", `{"ok":true}`)
	agg.fail("A-2", ReasonInvalidDate, nil)
	agg.succeed("A-3", `{"ok":true}`)
	agg.fail("A-4", ReasonSubmission, errors.New("status 502"))
	agg.succeed("A-5", `{"ok":true}`)

	report := agg.report("batch-1", start.Add(2*time.Second), false)

	assert.Len(t, report.Successes, 3)
	assert.Len(t, report.Failures, 2)
	assert.Equal(t, "", report.Failures[0].Detail)
	assert.Equal(t, "status 502", report.Failures[1].Detail)
	assert.Equal(t, 60.0, report.SuccessRate)
	assert.Equal(t, "Processed 5 of 5 invoices: 3 succeeded, 2 failed in 2.00s (success rate 60.00%)", report.Summary)
}

func TestAggregatorClampsNegativeElapsed(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	report := newAggregator(0, start).report("batch-1", start.Add(-time.Second), false)

	assert.Equal(t, time.Duration(0), report.Elapsed)
	assert.Contains(t, report.Summary, "in 0.00s")
	assert.Contains(t, report.Summary, "success rate 0.00%")
}

func TestSummaryMarksPartialReports(t *testing.T) {
	start := time.Now()
	agg := newAggregator(3, start)
	agg.succeed("A-1", "{}")

	report := agg.report("batch-1", start, true)

	assert.True(t, report.Partial)
	assert.Contains(t, report.Summary, "Processed 1 of 3 invoices")
	assert.Contains(t, report.Summary, "stopped before completion")
}
