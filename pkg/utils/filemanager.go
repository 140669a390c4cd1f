// =============================================================================
// GSTR-2B Reconciler - File Manager Utility
// =============================================================================
//
// This module provides file utilities for reconciliation runs:
//   - Directory management
//   - Output file naming
//   - Run summary logs
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name based on the format.
//
// PARAMETERS:
//   - format: The file name format with placeholders.
//   - params: Additional placeholder values, referenced as {key}.
//
// SUPPORTED PLACEHOLDERS:
//   - {uuid}: A new random UUID
//   - {timestamp}: Current timestamp (YYYYMMDD_HHMMSS)
//   - {date}: Current date (YYYYMMDD)
//   - {time}: Current time (HHMMSS)
//
// The result always ends in .xlsx.
func GenerateOutputFileName(format string, params map[string]string) string {
	return GenerateOutputFileNameAt(format, params, time.Now(), uuid.New())
}

// GenerateOutputFileNameAt is GenerateOutputFileName with a fixed clock and id.
func GenerateOutputFileNameAt(format string, params map[string]string, now time.Time, id uuid.UUID) string {
	replacements := []string{
		"{uuid}", id.String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}

	// Custom params in key order so the result does not depend on map order.
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		replacements = append(replacements, "{"+key+"}", sanitizeFileName(params[key]))
	}

	result := strings.NewReplacer(replacements...).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// sanitizeFileName replaces path separators and other characters that are
// not portable in file names.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// SUMMARY LOG
// =============================================================================

// Count is one labelled figure of a run summary.
type Count struct {
	Label string
	Value int
}

// RunSummary contains the summary of a reconciliation run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	TwoBFile  string
	BooksFile string
	Tolerance string

	// Counts are written in order.
	Counts []Count

	// OutputFile is the workbook path, empty for dry runs.
	OutputFile string

	ValidationErrors   int
	ValidationWarnings int
}

// WriteSummaryLog writes a text summary to outputDir and returns its path.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	summaryFileName := fmt.Sprintf("reconciliation_summary_%s.txt", timestamp)
	if summary.RunID != "" {
		summaryFileName = fmt.Sprintf("reconciliation_summary_%s_%s.txt", timestamp, shortID(summary.RunID))
	}
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	output := summary.OutputFile
	if output == "" {
		output = "(not written)"
	}

	fmt.Fprintf(writer, "GSTR-2B Reconciliation - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  GSTR-2B File:   %s\n"+
		"  Books File:     %s\n"+
		"  Tolerance:      %s\n"+
		"  Workbook:       %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TwoBFile,
		summary.BooksFile,
		summary.Tolerance,
		output)

	width := 0
	for _, c := range summary.Counts {
		width = max(width, len(c.Label))
	}

	writer.WriteString("Results:\n")
	for _, c := range summary.Counts {
		fmt.Fprintf(writer, "  %-*s  %d\n", width+1, c.Label+":", c.Value)
	}

	fmt.Fprintf(writer, "\nValidation:\n"+
		"  Errors:   %d\n"+
		"  Warnings: %d\n\n",
		summary.ValidationErrors,
		summary.ValidationWarnings)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
