package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"taxfiler/internal/config"
	"taxfiler/internal/logger"
)

var version = "1.0.0"

// appConfig is set by Execute before any subcommand runs
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "taxfiler",
	Short: "Taxfiler - bulk invoice submission for the tax e-filing portal",
	Long: `Taxfiler replays a purchase/sale invoice request captured from the
tax e-filing portal once for every invoice in a batch.

Copy a submission from the browser dev tools ("Copy as fetch"), prepare the
batch as JSON, XLSX or a Google Sheet whose columns are named after the portal
fields, and let taxfiler submit the rows one by one within the captured session.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Taxfiler executed")

		fmt.Println("Welcome to Taxfiler!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command with the loaded configuration
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
