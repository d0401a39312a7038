// Package batch drives the submission of an invoice batch to the portal.
//
// Invoices are handled strictly one at a time and in input order: the portal
// keys everything on one browser session (cookie plus XSRF token), and
// concurrent requests under a single session interleave or get throttled.
// Each batch call owns its outcome lists, period lock and lookup cache, so two
// calls never share state.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"taxfiler/internal/capture"
	"taxfiler/internal/invoice"
	"taxfiler/internal/logger"
	"taxfiler/internal/portal"
	"taxfiler/pkg/models"
)

// Failure reasons recorded on invoice outcomes
const (
	ReasonInvalidDate   = "invalid date format"
	ReasonCompanyLookup = "unable to fetch company info"
	ReasonSubmission    = "failed to process invoice"
)

// Portal is the remote side of a batch: counterparty lookups and submission
type Portal interface {
	ResolveCompany(ctx context.Context, tin string, headers map[string]string) (*models.CompanyInfo, error)
	SubmitInvoice(ctx context.Context, url string, headers map[string]string, body map[string]any) (string, error)
}

// Options tune a Submitter
type Options struct {
	// CacheCompanyLookups memoizes successful lookups by TIN for the duration
	// of one batch. Off by default so every invoice sees fresh portal data.
	CacheCompanyLookups bool

	// DefaultReferrer is sent as Referer when the capture carries none.
	DefaultReferrer string
}

// Submitter replays a captured portal request once per invoice
type Submitter struct {
	portal Portal
	opts   Options
	now    func() time.Time
	newID  func() string
}

// NewSubmitter creates a new batch submitter
func NewSubmitter(portal Portal, opts Options) *Submitter {
	return &Submitter{
		portal: portal,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit extracts the request template from captured, stripping the batch's
// field names from the body skeleton, and submits the batch.
func (s *Submitter) Submit(ctx context.Context, captured string, invoices []models.Invoice) (*models.BatchReport, error) {
	tpl, err := capture.Extract(captured, invoice.BatchFields(invoices))
	if err != nil {
		return nil, err
	}
	return s.SubmitBatch(ctx, invoices, tpl)
}

// SubmitBatch submits every invoice in order using tpl.
//
// A structurally invalid invoice anywhere in the batch fails the call before
// any request is sent. Date, lookup and submission failures are recorded per
// invoice and processing continues. When ctx ends mid-batch the outcomes
// recorded so far are returned as a partial report together with ctx.Err().
func (s *Submitter) SubmitBatch(ctx context.Context, invoices []models.Invoice, tpl *capture.RequestTemplate) (*models.BatchReport, error) {
	if err := invoice.ValidateBatch(invoices); err != nil {
		return nil, err
	}

	batchID := s.newID()
	r := &run{
		portal:  s.portal,
		tpl:     tpl,
		fields:  invoice.BatchFields(invoices),
		headers: sessionHeaders(tpl, s.opts.DefaultReferrer),
		results: newAggregator(len(invoices), s.now()),
		log:     logger.WithRequestID("batch", batchID),
	}
	if s.opts.CacheCompanyLookups {
		r.companies = cache.New(cache.NoExpiration, 0)
	}

	r.log.Info().
		Int("invoices", len(invoices)).
		Str("url", tpl.TargetURL).
		Bool("cache_lookups", s.opts.CacheCompanyLookups).
		Msg("Starting batch submission")

	for i, inv := range invoices {
		if err := ctx.Err(); err != nil {
			report := r.results.report(batchID, s.now(), true)
			r.log.Warn().
				Err(err).
				Int("processed", report.Processed()).
				Int("remaining", len(invoices)-i).
				Msg("Batch stopped before completion")
			return report, err
		}
		r.process(ctx, i, inv)
	}

	report := r.results.report(batchID, s.now(), false)
	r.logSummary(report)
	return report, nil
}

// run holds the state of one batch call
type run struct {
	portal    Portal
	tpl       *capture.RequestTemplate
	fields    []string
	headers   map[string]string
	results   *aggregator
	period    string
	companies *cache.Cache
	log       zerolog.Logger
}

func (r *run) process(ctx context.Context, index int, inv models.Invoice) {
	no := inv.Number()
	log := r.log.With().Str("invoice_no", no).Int("index", index+1).Logger()

	period, err := invoice.ValidateDate(inv, r.period)
	if err != nil {
		log.Warn().Err(err).Str("reason", ReasonInvalidDate).Msg("Skipping invoice")
		r.results.fail(no, ReasonInvalidDate, err)
		return
	}
	if r.period == "" {
		r.period = period
		log.Debug().Str("period", period).Msg("Batch period established")
	}

	var company *models.CompanyInfo
	if tin := inv.ItemID(); tin != "" {
		company, err = r.resolveCompany(ctx, tin)
		if err != nil {
			log.Warn().Err(err).Str("tin", tin).Str("reason", ReasonCompanyLookup).Msg("Skipping invoice")
			r.results.fail(no, ReasonCompanyLookup, err)
			return
		}
	}

	body, err := invoice.BuildBody(r.tpl.BodySkeleton, inv, r.fields, company)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build request body")
		r.results.fail(no, ReasonSubmission, err)
		return
	}

	payload, err := r.portal.SubmitInvoice(ctx, r.tpl.TargetURL, r.headers, body)
	if err != nil {
		log.Error().Err(err).Str("status", "failed").Msg("Failed to process invoice")
		r.results.fail(no, ReasonSubmission, err)
		return
	}

	log.Info().Str("status", "success").Msg("Invoice processed")
	r.results.succeed(no, payload)
}

func (r *run) resolveCompany(ctx context.Context, tin string) (*models.CompanyInfo, error) {
	if r.companies != nil {
		if cached, ok := r.companies.Get(tin); ok {
			r.log.Debug().Str("tin", tin).Msg("Company info served from batch cache")
			return cached.(*models.CompanyInfo), nil
		}
	}

	info, err := r.portal.ResolveCompany(ctx, tin, r.headers)
	if err != nil {
		return nil, err
	}

	if r.companies != nil {
		r.companies.Set(tin, info, cache.NoExpiration)
	}
	return info, nil
}

func (r *run) logSummary(report *models.BatchReport) {
	r.log.Info().
		Int("processed", report.Processed()).
		Int("success", len(report.Successes)).
		Int("failed", len(report.Failures)).
		Float64("elapsed_seconds", report.ElapsedSeconds).
		Float64("success_rate", report.SuccessRate).
		Msg("Batch submission completed")

	for _, f := range report.Failures {
		r.log.Info().
			Str("invoice_no", f.InvoiceNo).
			Str("reason", f.Message).
			Msg("Failed invoice")
	}
}

func sessionHeaders(tpl *capture.RequestTemplate, defaultReferrer string) map[string]string {
	referrer := tpl.Referrer
	if referrer == "" {
		referrer = defaultReferrer
	}
	return portal.SessionHeaders(tpl.AuthToken, tpl.SessionCookie, referrer)
}
