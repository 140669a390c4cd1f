// =============================================================================
// GSTR-2B Reconciler - Main Entry Point
// =============================================================================
//
// USAGE:
//   gstrecon reconcile     - Reconcile a GSTR-2B file against a Books file
//   gstrecon suggest FILE  - Suggest a column mapping for FILE
//   gstrecon validate      - Validate the configuration and column mappings
//   gstrecon version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Readers, normalizer, reconciler, workbook writer
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/gstr2b-reconciliation/cmd"
)

func main() {
	cmd.Execute()
}
