package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"taxfiler/internal/sheets"
	"taxfiler/internal/source"
	"taxfiler/pkg/models"
)

// addInputFlags registers the flags shared by commands that read a batch
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("capture", "", "File containing the captured portal request (fetch snippet) [REQUIRED]")
	cmd.Flags().String("input", "", "Invoice batch file (.json or .xlsx)")
	cmd.Flags().String("sheet", "", "Worksheet to read from an .xlsx input (default: first sheet)")
	cmd.Flags().String("sheet-url", "", "Google Sheets URL to read the batch from (default: GOOGLE_SHEET_URL)")
	cmd.Flags().String("worksheet", "", "Worksheet of the Google Sheet (default: GOOGLE_SHEET_WORKSHEET)")

	cmd.MarkFlagRequired("capture")
}

// batchInput is the resolved source of a batch
type batchInput struct {
	capture   string
	invoices  []models.Invoice
	origin    string
	sheetsSvc *sheets.Service
}

func readBatchInput(ctx context.Context, cmd *cobra.Command) (*batchInput, error) {
	cfg := currentConfig()

	capturePath, _ := cmd.Flags().GetString("capture")
	inputPath, _ := cmd.Flags().GetString("input")
	xlsxSheet, _ := cmd.Flags().GetString("sheet")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")

	captured, err := os.ReadFile(capturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}

	if inputPath != "" && sheetURL != "" {
		return nil, fmt.Errorf("--input and --sheet-url are mutually exclusive")
	}

	in := &batchInput{capture: string(captured)}

	if inputPath != "" {
		in.invoices, err = readInvoiceFile(inputPath, xlsxSheet)
		if err != nil {
			return nil, err
		}
		in.origin = inputPath
		return in, nil
	}

	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if sheetURL == "" {
		return nil, fmt.Errorf("no invoice batch given: use --input or --sheet-url (or set GOOGLE_SHEET_URL)")
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}

	in.sheetsSvc, err = sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}
	in.invoices, err = in.sheetsSvc.ReadInvoices(ctx, worksheet)
	if err != nil {
		return nil, err
	}
	in.origin = fmt.Sprintf("Google Sheet (%s)", worksheet)
	return in, nil
}

// readInvoiceFile dispatches on the file extension
func readInvoiceFile(path, xlsxSheet string) ([]models.Invoice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var invoices []models.Invoice
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		invoices, err = source.DecodeJSON(f)
	case ".xlsx":
		invoices, err = source.ReadXLSX(f, xlsxSheet)
	default:
		return nil, fmt.Errorf("unsupported input file type: %s (use .json or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return invoices, nil
}

// printSummary writes the human-readable result block
func printSummary(w io.Writer, report *models.BatchReport) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "                           BATCH SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Batch:        %s\n", report.BatchID)
	fmt.Fprintf(w, "Invoices:     %d\n", report.Total)
	fmt.Fprintf(w, "Succeeded:    %d\n", len(report.Successes))
	fmt.Fprintf(w, "Failed:       %d\n", len(report.Failures))
	fmt.Fprintf(w, "Success rate: %.2f%%\n", report.SuccessRate)
	fmt.Fprintf(w, "Elapsed:      %.2fs\n", report.ElapsedSeconds)
	if report.Partial {
		fmt.Fprintf(w, "Not reached:  %d\n", report.Total-report.Processed())
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, f := range report.Failures {
			line := fmt.Sprintf("  %-20s %s", f.InvoiceNo, f.Message)
			if f.Detail != "" {
				line += " (" + f.Detail + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, report.Summary)
}

// writeReport writes the JSON report to path, or to w when path is empty
func writeReport(w io.Writer, path string, report *models.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
