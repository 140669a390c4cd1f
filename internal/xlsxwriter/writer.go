// =============================================================================
// GSTR-2B Reconciler - Workbook Writer Module
// =============================================================================
//
// This module exports a reconciliation result as an Excel workbook with one
// sheet per outcome group.
//
// WORKBOOK STRUCTURE:
//   Summary          Metric / Count, plus run details
//   ExactMatches     matchType | 2B columns | __BOOKS__ | Books columns
//   ValueMismatches  mismatch  | 2B columns | __BOOKS__ | Books columns
//   MissingInBooks   2B columns
//   MissingIn2B      Books columns
//   ProbableMatches  reason    | 2B columns | __BOOKS__ | Books columns
//   Duplicate2B      2B columns
//   DuplicateBooks   Books columns
//
//   On paired sheets a Books header that also appears among the 2B headers
//   is written as "Books: <header>" so neither side overwrites the other.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetSummary         = "Summary"
	SheetExactMatches    = "ExactMatches"
	SheetValueMismatches = "ValueMismatches"
	SheetMissingInBooks  = "MissingInBooks"
	SheetMissingIn2B     = "MissingIn2B"
	SheetProbableMatches = "ProbableMatches"
	SheetDuplicate2B     = "Duplicate2B"
	SheetDuplicateBooks  = "DuplicateBooks"
)

// Sheets lists every sheet in workbook order.
var Sheets = []string{
	SheetSummary,
	SheetExactMatches,
	SheetValueMismatches,
	SheetMissingInBooks,
	SheetMissingIn2B,
	SheetProbableMatches,
	SheetDuplicate2B,
	SheetDuplicateBooks,
}

// BooksSeparator is the column dividing the 2B and Books halves of a pair.
const BooksSeparator = "__BOOKS__"

// BooksPrefix marks a Books header that collides with a 2B header.
const BooksPrefix = "Books: "

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// WriteOptions contains options for workbook generation.
type WriteOptions struct {
	// TwoBHeaders and BooksHeaders fix the column order of each dataset.
	// When empty the headers are collected from the records, sorted.
	TwoBHeaders  []string
	BooksHeaders []string

	// Details are extra key/value rows appended to the Summary sheet, in
	// order (e.g. run id, tolerance, input files).
	Details [][2]string

	// ColumnWidth is applied to every data column. 0 leaves the default.
	// Default: 18
	ColumnWidth float64
}

// DefaultWriteOptions returns the default write options.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{ColumnWidth: 18}
}

// SummaryLabels are the Summary sheet metric labels, in order.
var SummaryLabels = []string{
	"2B Rows",
	"Books Rows",
	"Exact Matches",
	"Value Mismatches",
	"Missing in Books",
	"Missing in 2B",
	"Probable Matches",
	"Duplicate 2B",
	"Duplicate Books",
}

// SummaryValues returns the counts matching SummaryLabels.
func SummaryValues(s reconciler.Summary) []int {
	return []int{
		s.Total2B,
		s.TotalBooks,
		s.ExactMatches,
		s.ValueMismatches,
		s.MissingInBooks,
		s.MissingIn2B,
		s.ProbableMatches,
		s.Duplicate2B,
		s.DuplicateBooks,
	}
}

// =============================================================================
// WORKBOOK GENERATION
// =============================================================================

// Write saves the workbook for result to path with default options.
func Write(result reconciler.Result, path string) error {
	return WriteWithOptions(result, path, DefaultWriteOptions())
}

// WriteWithOptions saves the workbook for result to path, creating the
// parent directory if needed.
func WriteWithOptions(result reconciler.Result, path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := Build(result, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteTo streams the workbook for result to w.
func WriteTo(result reconciler.Result, w io.Writer, options WriteOptions) error {
	f, err := Build(result, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller closes it.
func Build(result reconciler.Result, options WriteOptions) (*excelize.File, error) {
	twoBHeaders := options.TwoBHeaders
	if len(twoBHeaders) == 0 {
		twoBHeaders = collectHeaders(twoBRecords(result))
	}
	booksHeaders := options.BooksHeaders
	if len(booksHeaders) == 0 {
		booksHeaders = collectHeaders(booksRecords(result))
	}

	b := &builder{
		f:            excelize.NewFile(),
		twoBHeaders:  twoBHeaders,
		booksHeaders: booksHeaders,
		booksColumns: pairedBooksColumns(twoBHeaders, booksHeaders),
		width:        options.ColumnWidth,
	}

	style, err := b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		b.f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	b.headerStyle = style

	if err := b.build(result, options.Details); err != nil {
		b.f.Close()
		return nil, err
	}
	return b.f, nil
}

// =============================================================================
// SHEET BUILDING
// =============================================================================

type builder struct {
	f            *excelize.File
	twoBHeaders  []string
	booksHeaders []string
	booksColumns []string
	headerStyle  int
	width        float64
}

func (b *builder) build(result reconciler.Result, details [][2]string) error {
	if err := b.f.SetSheetName(b.f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range Sheets[1:] {
		if _, err := b.f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	// Summary.
	summary := [][]any{}
	for i, v := range SummaryValues(result.Summary) {
		summary = append(summary, []any{SummaryLabels[i], v})
	}
	for _, d := range details {
		summary = append(summary, []any{d[0], d[1]})
	}
	if err := b.writeSheet(SheetSummary, []string{"Metric", "Count"}, summary); err != nil {
		return err
	}

	// Paired sheets.
	exact := make([][]any, len(result.ExactMatches))
	for i, p := range result.ExactMatches {
		exact[i] = b.pairRow("Exact", p)
	}
	if err := b.writeSheet(SheetExactMatches, b.pairHeader("matchType"), exact); err != nil {
		return err
	}

	mismatches := make([][]any, len(result.ValueMismatches))
	for i, m := range result.ValueMismatches {
		mismatches[i] = b.pairRow(JoinDiffs(m.Diffs), m.Pair)
	}
	if err := b.writeSheet(SheetValueMismatches, b.pairHeader("mismatch"), mismatches); err != nil {
		return err
	}

	probable := make([][]any, len(result.ProbableMatches))
	for i, m := range result.ProbableMatches {
		probable[i] = b.pairRow(m.Reason, m.Pair)
	}
	if err := b.writeSheet(SheetProbableMatches, b.pairHeader("reason"), probable); err != nil {
		return err
	}

	// Single-dataset sheets.
	singles := []struct {
		sheet   string
		headers []string
		records []types.Record
	}{
		{SheetMissingInBooks, b.twoBHeaders, result.MissingInBooks},
		{SheetMissingIn2B, b.booksHeaders, result.MissingIn2B},
		{SheetDuplicate2B, b.twoBHeaders, result.Duplicate2B},
		{SheetDuplicateBooks, b.booksHeaders, result.DuplicateBooks},
	}
	for _, s := range singles {
		rows := make([][]any, len(s.records))
		for i, r := range s.records {
			rows[i] = cells(s.headers, r.Original)
		}
		if err := b.writeSheet(s.sheet, s.headers, rows); err != nil {
			return err
		}
	}

	b.f.SetActiveSheet(0)
	return nil
}

func (b *builder) pairHeader(lead string) []string {
	header := make([]string, 0, len(b.twoBHeaders)+len(b.booksColumns)+2)
	header = append(header, lead)
	header = append(header, b.twoBHeaders...)
	header = append(header, BooksSeparator)
	return append(header, b.booksColumns...)
}

func (b *builder) pairRow(lead string, p reconciler.Pair) []any {
	row := make([]any, 0, len(b.twoBHeaders)+len(b.booksHeaders)+2)
	row = append(row, lead)
	row = append(row, cells(b.twoBHeaders, p.TwoB.Original)...)
	row = append(row, "")
	return append(row, cells(b.booksHeaders, p.Books.Original)...)
}

// writeSheet writes a bold, frozen header row followed by rows.
func (b *builder) writeSheet(sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := b.f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	if len(header) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, "A1", last, b.headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	if err := b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}

	if b.width > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		if err := b.f.SetColWidth(sheet, "A", lastCol, b.width); err != nil {
			return fmt.Errorf("failed to size %s columns: %w", sheet, err)
		}
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// JoinDiffs renders mismatch diffs as "Date, Value".
func JoinDiffs(diffs []reconciler.Diff) string {
	parts := make([]string, len(diffs))
	for i, d := range diffs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

// cells returns the values of original in header order; absent cells are "".
func cells(headers []string, original types.Row) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		v, ok := original[h]
		if !ok || v == nil {
			out[i] = ""
			continue
		}
		out[i] = v
	}
	return out
}

// pairedBooksColumns prefixes Books headers that collide with 2B headers or
// with the separator.
func pairedBooksColumns(twoBHeaders, booksHeaders []string) []string {
	taken := make(map[string]bool, len(twoBHeaders)+1)
	for _, h := range twoBHeaders {
		taken[h] = true
	}
	taken[BooksSeparator] = true

	out := make([]string, len(booksHeaders))
	for i, h := range booksHeaders {
		if taken[h] {
			out[i] = BooksPrefix + h
		} else {
			out[i] = h
		}
	}
	return out
}

// collectHeaders gathers every key of the records' original rows, sorted.
func collectHeaders(records []types.Record) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, r := range records {
		for k := range r.Original {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}

func twoBRecords(result reconciler.Result) []types.Record {
	var out []types.Record
	for _, p := range result.ExactMatches {
		out = append(out, p.TwoB)
	}
	for _, m := range result.ValueMismatches {
		out = append(out, m.TwoB)
	}
	for _, m := range result.ProbableMatches {
		out = append(out, m.TwoB)
	}
	out = append(out, result.MissingInBooks...)
	return append(out, result.Duplicate2B...)
}

func booksRecords(result reconciler.Result) []types.Record {
	var out []types.Record
	for _, p := range result.ExactMatches {
		out = append(out, p.Books)
	}
	for _, m := range result.ValueMismatches {
		out = append(out, m.Books)
	}
	for _, m := range result.ProbableMatches {
		out = append(out, m.Books)
	}
	out = append(out, result.MissingIn2B...)
	return append(out, result.DuplicateBooks...)
}
