package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"taxfiler/internal/api"
	"taxfiler/internal/batch"
	"taxfiler/internal/logger"
	"taxfiler/internal/portal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve batch submission over HTTP",
	Long: `Serve exposes batch submission to the web front-end.

Endpoints:
  GET  /health       - liveness check
  POST /api/process  - {"textJsContent": "<capture>", "jsonData": [...] or "<json>"}

Optional environment variables:
  SERVER_ADDR - Listen address (default: :8080)
  ALLOWED_ORIGIN - CORS allowed origin (default: *)
  MAX_BODY_BYTES - Request body limit (default: 10MB)
  BATCH_TIMEOUT - Deadline per request; a partial report is returned with 504`,
	Example: `  # Listen on the default address
  taxfiler serve

  # Listen on localhost only
  taxfiler serve --addr 127.0.0.1:9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	cfg := *currentConfig()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ServerAddr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := portal.NewClient(portal.Config{
		BaseURL: cfg.PortalBaseURL,
		Timeout: cfg.PortalTimeout,
	})
	submitter := batch.NewSubmitter(client, batch.Options{
		CacheCompanyLookups: cfg.CacheCompanyLookups,
		DefaultReferrer:     cfg.PortalReferrer,
	})

	log.Info().
		Str("addr", cfg.ServerAddr).
		Dur("batch_timeout", cfg.BatchTimeout).
		Bool("cache_lookups", cfg.CacheCompanyLookups).
		Msg("Starting server")

	return api.NewServer(&cfg, submitter).Start(ctx)
}
