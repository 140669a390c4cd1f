// =============================================================================
// GSTR-2B Reconciler - Spreadsheet Parser
// =============================================================================
//
// This module reads GSTR-2B downloads and purchase registers saved as Excel
// workbooks into a header-keyed table.
//
// SUPPORTED FORMATS:
//   - .xlsx / .xlsm via excelize
//   - legacy .xls (BIFF) via xlsReader
//
// SHEET LAYOUT:
//   | GSTIN of supplier | Invoice number | Invoice Date | Taxable Value | ... |
//   |-------------------|----------------|--------------|---------------|-----|
//   | 27AAAAA0000A1Z5   | INV-001        | 01/04/2024   | 847.46        | ... |
//
//   The first non-empty row is the header. Blank rows are skipped and short
//   rows are padded with "" to the header width. Cells are read as their
//   displayed (formatted) text.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/csvparser"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// XLSX
// =============================================================================

// Parse reads the named sheet of an XLSX workbook. An empty sheet name
// selects the first sheet.
func Parse(filePath, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, filePath, sheet)
}

// ParseReader reads an XLSX workbook from r.
func ParseReader(r io.Reader, source, sheet string) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, source, sheet)
}

func parseWorkbook(f *excelize.File, source, sheet string) (*types.Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	name := sheets[0]
	if sheet != "" {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			return nil, fmt.Errorf("sheet %q not found (available: %v)", sheet, sheets)
		}
		name = sheet
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	return FromRows(rows, source)
}

// SheetNames lists the sheets of an XLSX workbook in order.
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// =============================================================================
// XLS
// =============================================================================

// ParseXLS reads the named sheet of a legacy XLS workbook.
func ParseXLS(filePath, sheet string) (*types.Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	return ParseXLSReader(bytes.NewReader(data), filePath, sheet)
}

// ParseXLSReader reads a legacy XLS workbook from r.
func ParseXLSReader(r io.ReadSeeker, source, sheet string) (*types.Table, error) {
	workbook, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheets := workbook.GetSheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	index := 0
	if sheet != "" {
		index = -1
		for i := range sheets {
			if sheets[i].GetName() == sheet {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
	}

	ws, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %d: %w", index, err)
	}

	var rows [][]string
	for _, row := range ws.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}

	return FromRows(rows, source)
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

// FromRows builds a table from raw sheet rows.
func FromRows(rows [][]string, source string) (*types.Table, error) {
	start := -1
	for i, row := range rows {
		if !csvparser.IsRowEmpty(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	headers := csvparser.CleanHeaders(rows[start])

	data := make([]types.Row, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if csvparser.IsRowEmpty(row) {
			continue
		}
		data = append(data, csvparser.ToRow(headers, row))
	}

	return &types.Table{
		Headers: headers,
		Rows:    data,
		Source:  source,
	}, nil
}
