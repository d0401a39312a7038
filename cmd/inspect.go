package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"taxfiler/internal/capture"
	"taxfiler/internal/invoice"
	"taxfiler/internal/logger"
	"taxfiler/internal/portal"
	"taxfiler/pkg/models"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Check a capture and an invoice batch without contacting the portal",
	Long: `Inspect extracts the request template from a captured portal request and
runs the offline checks over an invoice batch: required fields, exactly one
amount field, parseable amounts, date format and a single period per batch.

Nothing is sent to the portal.`,
	Example: `  # Check a capture against a JSON batch
  taxfiler inspect --capture request.txt --input invoices.json`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	addInputFlags(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("inspect")

	in, err := readBatchInput(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	tpl, err := capture.Extract(in.capture, invoice.BatchFields(in.invoices))
	if err != nil {
		return fmt.Errorf("capture rejected: %w", err)
	}

	out := cmd.OutOrStdout()
	printTemplate(out, tpl)

	rejected, err := inspectInvoices(out, in.invoices)
	if err != nil {
		return err
	}

	log.Info().
		Int("invoices", len(in.invoices)).
		Int("date_rejections", rejected).
		Msg("Inspection finished")
	return nil
}

func printTemplate(w io.Writer, tpl *capture.RequestTemplate) {
	keys := make([]string, 0, len(tpl.BodySkeleton))
	for k := range tpl.BodySkeleton {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "                           CAPTURED REQUEST")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "URL:           %s\n", tpl.TargetURL)
	fmt.Fprintf(w, "Method:        %s\n", tpl.Method)
	fmt.Fprintf(w, "Referrer:      %s\n", tpl.Referrer)
	fmt.Fprintf(w, "XSRF token:    %s\n", foundOrNot(tpl.AuthToken))
	fmt.Fprintf(w, "Cookie:        %s\n", foundOrNot(tpl.SessionCookie))
	fmt.Fprintf(w, "Body skeleton: %s\n", strings.Join(keys, ", "))
}

// inspectInvoices prints one line per invoice and returns the number of date
// rejections. Structural problems stop the batch and are returned as errors.
func inspectInvoices(w io.Writer, invoices []models.Invoice) (int, error) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "                           INVOICES (%d)\n", len(invoices))
	fmt.Fprintln(w, strings.Repeat("=", 80))

	if err := invoice.ValidateBatch(invoices); err != nil {
		var verr *invoice.ValidationError
		if errors.As(err, &verr) && verr.Index >= 0 {
			fmt.Fprintf(w, "  row %d: %v\n", verr.Index+1, err)
		}
		return 0, fmt.Errorf("batch would be rejected: %w", err)
	}

	period := ""
	rejected := 0
	for _, inv := range invoices {
		p, err := invoice.ValidateDate(inv, period)
		if err != nil {
			rejected++
			fmt.Fprintf(w, "  %-20s REJECT  %v\n", inv.Number(), err)
			continue
		}
		if period == "" {
			period = p
		}

		counterparty := "-"
		if tin := inv.ItemID(); tin != "" {
			counterparty = fmt.Sprintf("%s (%s)", tin, taxpayerLabel(portal.ClassifyTIN(tin)))
		}
		fmt.Fprintf(w, "  %-20s OK      %s  counterparty %s\n", inv.Number(), inv.Date(), counterparty)
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	if period != "" {
		fmt.Fprintf(w, "Period: %s\n", period)
	}
	fmt.Fprintf(w, "Ready: %d, rejected by date check: %d\n", len(invoices)-rejected, rejected)
	return rejected, nil
}

func taxpayerLabel(t models.TaxpayerType) string {
	if t == models.TaxpayerRegistered {
		return "registered"
	}
	return "non-registered"
}

func foundOrNot(v string) string {
	if v == "" || v == capture.NotFound {
		return "not found"
	}
	return "found"
}
