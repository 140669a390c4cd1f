// =============================================================================
// GSTR-2B Reconciler - Suggest Command
// =============================================================================
//
// This file defines the 'suggest' command, which reads the headers of an
// input file and prints the column mapping the reconciler would pick.
//
// COMMAND USAGE:
//   gstrecon suggest FILE [--sheet NAME] [--suggester chain] [--yaml]
//
// The --yaml output can be pasted into the mapping section of a dataset.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/loader"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/mapping"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	suggestSheet     string
	suggestSuggester string
	suggestYAML      bool
)

// suggestCmd represents the 'suggest' command.
var suggestCmd = &cobra.Command{
	Use:   "suggest FILE",
	Short: "Suggest a column mapping from a file's headers",
	Long: `The suggest command reads the header row of FILE and prints the column
that would be used for each field: GSTIN, Invoice Number, Invoice Date,
Taxable Value and Total Invoice Value.

Suggesters:
  regex  - built-in header patterns
  fuzzy  - closest header to known field names
  chain  - regex first, fuzzy for whatever is left (default)`,

	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggest(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringVar(&suggestSheet, "sheet", "", "Worksheet to read (default: first sheet)")
	suggestCmd.Flags().StringVar(&suggestSuggester, "suggester", "chain", "Suggestion strategy: regex, fuzzy or chain")
	suggestCmd.Flags().BoolVar(&suggestYAML, "yaml", false, "Print the mapping as YAML")
}

func runSuggest(out io.Writer, path string) error {
	suggester, err := mapping.New(suggestSuggester)
	if err != nil {
		return err
	}

	dataset := config.DefaultConfig().Books
	dataset.Sheet = suggestSheet

	table, err := loader.LoadFile(path, dataset)
	if err != nil {
		return err
	}

	m := suggester.Suggest(table.Headers)

	if suggestYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]types.Mapping{"mapping": m}); err != nil {
			return fmt.Errorf("failed to encode mapping: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintf(out, "File:    %s\n", path)
	fmt.Fprintf(out, "Rows:    %d\n", len(table.Rows))
	fmt.Fprintln(out, "Headers:")
	for i, h := range table.Headers {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, h)
	}

	fmt.Fprintln(out, "\nSuggested mapping:")
	for _, f := range types.Fields {
		header := m.Get(f)
		if header == "" {
			header = "(none)"
		}
		fmt.Fprintf(out, "  %-20s %s\n", f.Label()+":", header)
	}
	return nil
}
