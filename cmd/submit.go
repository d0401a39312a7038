package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"taxfiler/internal/batch"
	"taxfiler/internal/logger"
	"taxfiler/internal/portal"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an invoice batch to the portal",
	Long: `Submit every invoice of a batch to the tax e-filing portal, replaying the
captured request with each invoice's fields.

Invoices are submitted one at a time in input order. A malformed capture or an
invoice with missing or conflicting amounts stops the run before anything is
sent. Date and counterparty problems only fail the affected invoice.

The summary is printed to stderr; the JSON report goes to --output or stdout.

Required environment variables (Google Sheet input only):
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string

Optional environment variables:
  PORTAL_BASE_URL - Portal root for counterparty lookups
  PORTAL_REFERRER - Referer sent when the capture has none
  PORTAL_TIMEOUT - Timeout per portal call (default: 30s)
  BATCH_TIMEOUT - Timeout for the whole batch (default: 10m)
  CACHE_COMPANY_LOOKUPS - Reuse counterparty lookups within a batch (default: false)`,
	Example: `  # Submit a JSON batch
  taxfiler submit --capture request.txt --input invoices.json

  # Submit the "January" sheet of a workbook and keep the report
  taxfiler submit --capture request.txt --input invoices.xlsx --sheet January --output report.json

  # Submit from a Google Sheet and append the outcomes to a "Results" worksheet
  taxfiler submit --capture request.txt --sheet-url https://docs.google.com/spreadsheets/d/abc --results-worksheet Results`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	addInputFlags(submitCmd)
	submitCmd.Flags().Bool("cache-lookups", false, "Reuse counterparty lookups within the batch (overrides CACHE_COMPANY_LOOKUPS)")
	submitCmd.Flags().Duration("timeout", 0, "Timeout for the whole batch (default: BATCH_TIMEOUT)")
	submitCmd.Flags().String("output", "", "Write the JSON report to this file instead of stdout")
	submitCmd.Flags().String("results-worksheet", "", "Append outcomes to this worksheet of the Google Sheet")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("submit")
	cfg := currentConfig()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	output, _ := cmd.Flags().GetString("output")
	resultsWorksheet, _ := cmd.Flags().GetString("results-worksheet")

	cacheLookups := cfg.CacheCompanyLookups
	if cmd.Flags().Changed("cache-lookups") {
		cacheLookups, _ = cmd.Flags().GetBool("cache-lookups")
	}
	if timeout <= 0 {
		timeout = cfg.BatchTimeout
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	in, err := readBatchInput(ctx, cmd)
	if err != nil {
		return err
	}
	if resultsWorksheet != "" && in.sheetsSvc == nil {
		return fmt.Errorf("--results-worksheet requires a Google Sheet input")
	}

	log.Info().
		Str("source", in.origin).
		Int("invoices", len(in.invoices)).
		Bool("cache_lookups", cacheLookups).
		Dur("timeout", timeout).
		Msg("Starting batch submission")

	client := portal.NewClient(portal.Config{
		BaseURL: cfg.PortalBaseURL,
		Timeout: cfg.PortalTimeout,
	})
	submitter := batch.NewSubmitter(client, batch.Options{
		CacheCompanyLookups: cacheLookups,
		DefaultReferrer:     cfg.PortalReferrer,
	})

	start := time.Now()
	report, submitErr := submitter.Submit(ctx, in.capture, in.invoices)
	if report == nil {
		return submitErr
	}

	printSummary(cmd.ErrOrStderr(), report)

	if err := writeReport(cmd.OutOrStdout(), output, report); err != nil {
		return err
	}

	if resultsWorksheet != "" {
		// The batch context may already be spent.
		writeCtx, writeCancel := context.WithTimeout(context.Background(), cfg.PortalTimeout)
		defer writeCancel()
		if err := in.sheetsSvc.WriteReport(writeCtx, report, resultsWorksheet); err != nil {
			log.Error().Err(err).Msg("Failed to write outcomes to Google Sheet")
			return err
		}
	}

	log.Info().
		Str("batch_id", report.BatchID).
		Dur("duration", time.Since(start)).
		Msg("Batch submission finished")

	if submitErr != nil {
		if errors.Is(submitErr, context.DeadlineExceeded) {
			return fmt.Errorf("batch timed out after %s: %w", timeout, submitErr)
		}
		return submitErr
	}
	return nil
}
