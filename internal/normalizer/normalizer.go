// =============================================================================
// GSTR-2B Reconciler - Normalizer
// =============================================================================
//
// This module converts raw tabular rows plus a column mapping into canonical
// records with a well-defined invoice identity, cleaned amounts, and a
// comparable date.
//
// NORMALIZATION RULES:
//   - GSTIN:          uppercase, all whitespace removed
//   - Invoice number: uppercase, whitespace / '-' / '/' removed, leading
//                     zeros removed ("INV-001", "inv 1" and "INV001" collapse)
//   - Amounts:        commas and whitespace removed, parsed as a decimal
//   - Dates:          DD/MM/YYYY, YYYY-MM-DD and DD-MM-YYYY become YYYY-MM-DD;
//                     anything else is kept as text
//
// Nothing here returns an error. A value that cannot be parsed becomes an
// absent value and flows into reconciliation as "not comparable".
//
// =============================================================================

package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE SHAPES
// =============================================================================

var (
	// DD/MM/YYYY
	dayMonthYearSlash = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

	// YYYY-MM-DD
	yearMonthDayDash = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

	// DD-MM-YYYY
	dayMonthYearDash = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
)

// =============================================================================
// BATCH NORMALIZATION
// =============================================================================

// Normalize converts every row into a canonical record, preserving order.
// Optional fields that are not mapped are left absent.
func Normalize(rows []types.Row, mapping types.Mapping) []types.Record {
	records := make([]types.Record, len(rows))
	for i, row := range rows {
		records[i] = NormalizeRow(row, mapping)
	}
	return records
}

// NormalizeRow converts a single row.
func NormalizeRow(row types.Row, mapping types.Mapping) types.Record {
	record := types.Record{
		GSTIN:         GSTIN(cell(row, mapping.GSTIN)),
		InvoiceNumber: InvoiceNumber(cell(row, mapping.InvoiceNumber)),
		Original:      row,
	}

	if mapping.InvoiceDate != "" {
		record.InvoiceDate = Date(cell(row, mapping.InvoiceDate))
	}
	if mapping.TaxableValue != "" {
		record.TaxableValue = Amount(cell(row, mapping.TaxableValue))
	}
	if mapping.TotalValue != "" {
		record.TotalValue = Amount(cell(row, mapping.TotalValue))
	}

	return record
}

// cell returns the raw value under header, or nil when unmapped or missing.
func cell(row types.Row, header string) any {
	if header == "" {
		return nil
	}
	return row[header]
}

// =============================================================================
// FIELD NORMALIZATION
// =============================================================================

// GSTIN uppercases the value and removes all whitespace. An absent value
// yields the empty string.
func GSTIN(v any) string {
	s, _ := text(v)
	return strings.Map(dropSpace, strings.ToUpper(s))
}

// InvoiceNumber uppercases the value, removes whitespace, '-' and '/', then
// strips leading zeros. A value of only zeros yields the empty string.
// Applying InvoiceNumber to its own output returns the same string.
func InvoiceNumber(v any) string {
	s, _ := text(v)
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '/' {
			return -1
		}
		return dropSpace(r)
	}, strings.ToUpper(s))
	return strings.TrimLeft(s, "0")
}

// Amount parses a numeric cell. Thousands separators and whitespace are
// ignored. Anything non-numeric, including an empty cell, is absent.
func Amount(v any) decimal.NullDecimal {
	switch n := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NewNullDecimal(n)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(n))
	}

	s, ok := text(v)
	if !ok {
		return decimal.NullDecimal{}
	}

	s = strings.Map(func(r rune) rune {
		if r == ',' {
			return -1
		}
		return dropSpace(r)
	}, s)
	if s == "" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Date re-emits the three recognized shapes as YYYY-MM-DD. Other text is
// returned trimmed but otherwise unchanged, so it never equals a normalized
// date from the other dataset. An absent value yields the empty string.
func Date(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)

	if m := dayMonthYearSlash.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := yearMonthDayDash.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := dayMonthYearDash.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}

	return s
}

// =============================================================================
// HELPERS
// =============================================================================

// text renders a raw cell as a string. The boolean is false for absent cells.
func text(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case decimal.Decimal:
		return x.String(), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func fromFloat(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}
