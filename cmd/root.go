// =============================================================================
// GSTR-2B Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (gstrecon)
//   ├── reconcileCmd (gstrecon reconcile)
//   ├── suggestCmd   (gstrecon suggest)
//   ├── validateCmd  (gstrecon validate)
//   └── versionCmd   (gstrecon version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose). Commands
//   call loadConfig, which reads an optional .env file, the configuration
//   file and sets up logging.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// envFile is read into the environment before the configuration.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gstrecon",
	Short: "GSTR-2B Reconciler - Match the GSTR-2B statement against your purchase books",

	Long: `gstrecon reconciles the GSTR-2B statement downloaded from the GST portal
against the purchase register kept in your books.

Every 2B invoice is matched to a Books invoice with the same supplier GSTIN
and normalized invoice number. The result is written to an Excel workbook
with one sheet per outcome:
  - Exact matches and value/date mismatches
  - Invoices missing from either side
  - Probable matches where only the invoice number differs
  - Duplicate invoices within each side

Example Usage:
  gstrecon reconcile --twob 2b.xlsx --books purchases.csv
  gstrecon reconcile --config ./april.yaml --tolerance 5
  gstrecon suggest purchases.csv
  gstrecon validate`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// loadConfig loads the environment file and the configuration, then installs
// the logger. A missing configuration file yields the defaults unless
// --config was given. The caller must close the returned closer.
func loadConfig() (*config.MainConfig, io.Closer, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}

	load := config.LoadOrDefault
	if rootCmd.PersistentFlags().Changed("config") {
		load = config.LoadMainConfig
	}

	cfg, err := load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	closer, err := logging.Setup(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, closer, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// --config flag: Path to the YAML configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	// --env flag: KEY=VALUE file loaded before the configuration.
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env",
		".env",
		"Path to an optional environment file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
