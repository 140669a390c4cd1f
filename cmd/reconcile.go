// =============================================================================
// GSTR-2B Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, which runs one reconciliation
// of a GSTR-2B file against a Books file.
//
// COMMAND USAGE:
//   gstrecon reconcile [flags]
//
// FLAGS:
//   --twob       : GSTR-2B file (overrides two_b.path)
//   --books      : Books file (overrides books.path)
//   --tolerance  : Largest amount difference treated as equal
//   --out        : Output directory (overrides output_dir)
//   --dry-run    : Reconcile without writing any file
//   --json       : Print the summary as JSON instead of the card grid
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/logging"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/pipeline"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/xlsxwriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	twoBPath   string
	booksPath  string
	tolerance  string
	outputDir  string
	dryRun     bool
	jsonOutput bool
)

// =============================================================================
// RECONCILE COMMAND DEFINITION
// =============================================================================

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a GSTR-2B file against a Books file",
	Long: `The reconcile command reads both files, maps their columns, normalizes
GSTINs, invoice numbers, dates and amounts, and groups every invoice into
exact matches, value mismatches, missing invoices, probable matches and
duplicates.

Input files may be CSV, TSV, XLSX or XLS. Columns are taken from the
configuration file; any field left unmapped is suggested from the headers.

On success:
  - The reconciliation workbook is written to the output directory
  - A text summary log is written next to it
  - A validation log is written when data quality issues were found

Files given with --twob and --books take precedence over the configuration.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&twoBPath, "twob", "", "Path to the GSTR-2B file")
	reconcileCmd.Flags().StringVar(&booksPath, "books", "", "Path to the Books (purchase register) file")

	// --tolerance is parsed as a decimal so that e.g. 0.10 is exact.
	reconcileCmd.Flags().StringVar(&tolerance, "tolerance", "", "Largest amount difference treated as equal (default from config, else 1)")

	reconcileCmd.Flags().StringVar(&outputDir, "out", "", "Output directory for the workbook and logs")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Reconcile without writing any file")
	reconcileCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReconcile(cmd *cobra.Command) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := applyReconcileFlags(cfg); err != nil {
		return err
	}

	outcome := pipeline.New(cfg, logging.WithComponent("pipeline")).
		WithDryRun(dryRun).
		Run()
	if outcome.Error != nil {
		return outcome.Error
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, outcome)
	}

	printSummary(out, outcome)
	return nil
}

// applyReconcileFlags copies explicit flags over the configuration.
func applyReconcileFlags(cfg *config.MainConfig) error {
	if twoBPath != "" {
		cfg.TwoB.Path = twoBPath
	}
	if booksPath != "" {
		cfg.Books.Path = booksPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if tolerance != "" {
		t, err := decimal.NewFromString(strings.TrimSpace(tolerance))
		if err != nil {
			return fmt.Errorf("invalid --tolerance %q: %w", tolerance, err)
		}
		if t.IsNegative() {
			return fmt.Errorf("--tolerance must not be negative, got %s", t)
		}
		cfg.Tolerance = &t
	}

	if cfg.TwoB.Path == "" || cfg.Books.Path == "" {
		return fmt.Errorf("both --twob and --books are required (or two_b.path and books.path in %s)", cfgFile)
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// jsonSummary is the --json document.
type jsonSummary struct {
	RunID         string             `json:"runId"`
	Summary       reconciler.Summary `json:"summary"`
	Tolerance     string             `json:"tolerance"`
	OutputFile    string             `json:"outputFile,omitempty"`
	SummaryFile   string             `json:"summaryFile,omitempty"`
	ValidationLog string             `json:"validationLog,omitempty"`
	Warnings      int                `json:"warnings"`
}

func printJSON(w io.Writer, outcome pipeline.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonSummary{
		RunID:         outcome.RunID,
		Summary:       outcome.Result.Summary,
		Tolerance:     outcome.Tolerance,
		OutputFile:    outcome.OutputFile,
		SummaryFile:   outcome.SummaryFile,
		ValidationLog: outcome.ValidationLog,
		Warnings:      len(outcome.Validation),
	})
}

// cardColors colours each summary card, in xlsxwriter.SummaryLabels order.
var cardColors = []*color.Color{
	color.New(color.BgBlue, color.FgWhite),
	color.New(color.BgBlue, color.FgWhite),
	color.New(color.BgGreen, color.FgBlack),
	color.New(color.BgYellow, color.FgBlack),
	color.New(color.BgRed, color.FgWhite),
	color.New(color.BgRed, color.FgWhite),
	color.New(color.BgCyan, color.FgBlack),
	color.New(color.BgMagenta, color.FgWhite),
	color.New(color.BgMagenta, color.FgWhite),
}

// printSummary prints the summary as a grid of cards, three per line.
func printSummary(w io.Writer, outcome pipeline.Outcome) {
	values := xlsxwriter.SummaryValues(outcome.Result.Summary)

	width := 0
	for _, label := range xlsxwriter.SummaryLabels {
		width = max(width, len(label))
	}

	fmt.Fprintln(w)
	for i, label := range xlsxwriter.SummaryLabels {
		cardColors[i].Fprintf(w, " %-*s %6d ", width, label, values[i])
		if i%3 == 2 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Run ID:     %s\n", outcome.RunID)
	fmt.Fprintf(w, "Tolerance:  %s\n", outcome.Tolerance)
	if outcome.OutputFile != "" {
		fmt.Fprintf(w, "Workbook:   %s\n", outcome.OutputFile)
	} else {
		fmt.Fprintln(w, "Workbook:   (dry run, not written)")
	}
	if outcome.SummaryFile != "" {
		fmt.Fprintf(w, "Summary:    %s\n", outcome.SummaryFile)
	}
	if n := len(outcome.Validation); n > 0 {
		color.New(color.FgYellow).Fprintf(w, "Warnings:   %d", n)
		if outcome.ValidationLog != "" {
			fmt.Fprintf(w, " (see %s)", outcome.ValidationLog)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Time:       %s\n", outcome.Stats.TotalTime.Round(time.Millisecond))
}
