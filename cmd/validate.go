// =============================================================================
// GSTR-2B Reconciler - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and the column mappings of both input files without reconciling.
//
// COMMAND USAGE:
//   gstrecon validate [--twob FILE] [--books FILE]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/logging"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/pipeline"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/validation"
	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and column mappings",
	Long: `The validate command loads the configuration, reads both input files and
checks that every required field maps to an existing column. Mapping
warnings (no amount or date column, one column used twice) are listed too.

Nothing is reconciled and no files are written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := loadConfig()
		if err != nil {
			return err
		}
		defer closer.Close()

		if twoBPath != "" {
			cfg.TwoB.Path = twoBPath
		}
		if booksPath != "" {
			cfg.Books.Path = booksPath
		}

		outcome := pipeline.New(cfg, logging.WithComponent("pipeline")).Check()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration: %s\n\n", cfgFile)
		for _, ds := range []pipeline.DatasetOutcome{outcome.TwoB, outcome.Books} {
			if ds.Headers == nil {
				continue
			}
			fmt.Fprintf(out, "%s (%s, %d rows)\n", ds.Name, ds.Path, ds.Rows)
			for _, f := range types.Fields {
				fmt.Fprintf(out, "  %-20s %s\n", f.Label()+":", ds.Mapping.Get(f))
			}
			fmt.Fprintln(out)
		}

		if len(outcome.Validation) > 0 {
			fmt.Fprintln(out, validation.FormatErrors(outcome.Validation))
		}

		if outcome.Error != nil {
			return outcome.Error
		}

		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&twoBPath, "twob", "", "Path to the GSTR-2B file")
	validateCmd.Flags().StringVar(&booksPath, "books", "", "Path to the Books file")
}
