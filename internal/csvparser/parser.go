// =============================================================================
// GSTR-2B Reconciler - CSV Parser Module
// =============================================================================
//
// This module parses delimited-text exports (purchase registers, GST portal
// downloads saved as CSV) into a header-keyed table. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon, or auto-detection)
//   - Multi-row headers
//   - Custom data start rows
//   - UTF-8 (with or without BOM), ISO-8859-1 and Windows-1252 input
//   - Quoted fields, including sloppy quoting from spreadsheet exports
//
// Cells are returned as trimmed strings. An empty cell stays an empty string;
// the normalizer treats it as absent.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// autoDelimiters are tried, in order, when the delimiter is "auto".
var autoDelimiters = []rune{',', ';', '\t', '|'}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the dataset configuration.
//
// RETURNS:
//   - The parsed table, with Source set to filePath.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings)
}

// ParseReader parses CSV content from r.
//
// PARSING PROCESS:
//   1. Decode the configured encoding to UTF-8 (dropping any BOM)
//   2. Configure the CSV reader with the delimiter and quote settings
//   3. Read and merge header rows
//   4. Read data rows starting from the configured data start row
//   5. Convert each row to a map of header -> value
func ParseReader(r io.Reader, source string, settings config.CSVSettings) (*types.Table, error) {
	decoder, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(transform.NewReader(r, decoder.NewDecoder()))

	comma, err := resolveDelimiter(reader, settings.Delimiter)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, comma)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &types.Table{
		Headers: headers,
		Rows:    extractDataRows(allRows, headers, settings),
		Source:  source,
	}, nil
}

// decoderFor maps an encoding name to a decoder. UTF-8 input may carry a BOM.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// resolveDelimiter returns the field separator for a delimiter setting.
// "auto" inspects the first line without consuming it.
func resolveDelimiter(reader *bufio.Reader, delimiter string) (rune, error) {
	switch delimiter {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	case "auto":
		return sniffDelimiter(reader), nil
	}

	runes := []rune(delimiter)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", delimiter)
	}
	return runes[0], nil
}

// sniffDelimiter picks the candidate occurring most often in the first line.
func sniffDelimiter(reader *bufio.Reader) rune {
	peek, _ := reader.Peek(4096)
	line := string(peek)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, d := range autoDelimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// configureReader configures the CSV reader for spreadsheet-style exports.
func configureReader(reader *csv.Reader, comma rune) {
	reader.Comma = comma

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// extractHeaders extracts and merges headers from the CSV.
//
// MULTI-ROW HEADER HANDLING:
//   Non-empty values of each column are joined with a space.
//
//   Example:
//   Row 1: "Invoice", "",      "Taxable", ""
//   Row 2: "Number",  "Date",  "Value",   "GSTIN"
//   Result: "Invoice Number", "Date", "Taxable Value", "GSTIN"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return CleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string

		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}

		headers[col] = strings.Join(parts, " ")
	}

	return CleanHeaders(headers), nil
}

// CleanHeaders trims header values and makes them usable as row keys.
//
// CLEANING OPERATIONS:
//   - Trim whitespace
//   - Name empty headers Column_<n> (1-based)
//   - Suffix repeated headers _1, _2, ... so no column is shadowed
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	next := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		// A suffixed name may itself appear later in the row, so keep
		// counting until the name is free.
		name := header
		for used[name] {
			next[header]++
			name = fmt.Sprintf("%s_%d", header, next[header])
		}
		used[name] = true

		cleaned[i] = name
	}

	return cleaned
}

// extractDataRows converts data rows to header-keyed maps, skipping blank rows.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []types.Row {
	// DataStartRow is 1-indexed.
	startIndex := settings.DataStartRow - 1
	if startIndex < 0 {
		startIndex = max(settings.HeaderRows, 1)
	}

	if startIndex >= len(allRows) {
		return []types.Row{}
	}

	dataRows := make([]types.Row, 0, len(allRows)-startIndex)

	for rowIndex := startIndex; rowIndex < len(allRows); rowIndex++ {
		row := allRows[rowIndex]

		if IsRowEmpty(row) {
			continue
		}

		dataRows = append(dataRows, ToRow(headers, row))
	}

	return dataRows
}

// ToRow zips headers with cell values. Missing trailing cells become "";
// cells beyond the last header are dropped.
func ToRow(headers, cells []string) types.Row {
	row := make(types.Row, len(headers))
	for i, header := range headers {
		if i < len(cells) {
			row[header] = strings.TrimSpace(cells[i])
		} else {
			row[header] = ""
		}
	}
	return row
}

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
