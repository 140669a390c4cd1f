// =============================================================================
// GSTR-2B Reconciler - Validation Engine
// =============================================================================
//
// This module checks a dataset before it is reconciled. Validation happens at
// two levels:
//   1. Mapping-level: the column mapping against the dataset's headers
//   2. Record-level: data quality of the normalized records
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the dataset, field, value and (for records) the row
//   - "error" severity blocks reconciliation; "warning" is reported only
//
// Record-level checks never block: the reconciler degrades malformed values
// on its own, so they are always warnings.
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequiredField  = "required_field"
	RuleHeaderExists   = "header_exists"
	RuleAmountMapped   = "amount_mapped"
	RuleDateMapped     = "date_mapped"
	RuleHeaderReuse    = "header_reuse"
	RuleGSTINPresent   = "gstin_present"
	RuleGSTINFormat    = "gstin_format"
	RuleInvoicePresent = "invoice_number_present"
	RuleAmountNumeric  = "amount_numeric"
	RuleDateFormat     = "date_format"
)

// gstinPattern is the 15-character GSTIN layout: state code, PAN, entity
// number, the letter Z and a check character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Dataset names the dataset ("GSTR-2B", "Books").
	Dataset string

	// Field is the semantic field label, e.g. "Invoice Number".
	Field string

	// Value is the offending header or cell value.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the 1-based data row, or 0 for mapping-level errors.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	where := e.Dataset
	if e.RowNumber > 0 {
		where = fmt.Sprintf("%s row %d", e.Dataset, e.RowNumber)
	}
	return fmt.Sprintf("[%s] %s, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		where,
		e.Field,
		e.Message,
		e.Value,
	)
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// =============================================================================
// MAPPING VALIDATION
// =============================================================================

// ValidateMapping checks a column mapping against the dataset headers.
//
// ERRORS:
//   - GSTIN or Invoice Number unmapped
//   - a mapped header that the dataset does not have
//
// WARNINGS:
//   - neither Taxable Value nor Total Invoice Value mapped
//   - Invoice Date unmapped
//   - one header mapped to two fields
func ValidateMapping(dataset string, m types.Mapping, headers []string) []*ValidationError {
	var errs []*ValidationError

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	usedBy := make(map[string]types.Field)

	for _, f := range types.Fields {
		header := m.Get(f)

		if header == "" {
			if f.Required() {
				errs = append(errs, &ValidationError{
					Severity: SeverityError,
					Dataset:  dataset,
					Field:    f.Label(),
					Rule:     RuleRequiredField,
					Message:  "required field is not mapped to a column",
				})
			}
			continue
		}

		if !present[header] {
			errs = append(errs, &ValidationError{
				Severity: SeverityError,
				Dataset:  dataset,
				Field:    f.Label(),
				Value:    header,
				Rule:     RuleHeaderExists,
				Message:  "mapped column does not exist in the file",
			})
		}

		if other, dup := usedBy[header]; dup {
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning,
				Dataset:  dataset,
				Field:    f.Label(),
				Value:    header,
				Rule:     RuleHeaderReuse,
				Message:  fmt.Sprintf("column is also mapped to %s", other.Label()),
			})
		} else {
			usedBy[header] = f
		}
	}

	if m.TaxableValue == "" && m.TotalValue == "" {
		errs = append(errs, &ValidationError{
			Severity: SeverityWarning,
			Dataset:  dataset,
			Field:    types.FieldTotalValue.Label(),
			Rule:     RuleAmountMapped,
			Message:  "no amount column mapped; values will not be compared",
		})
	}

	if m.InvoiceDate == "" {
		errs = append(errs, &ValidationError{
			Severity: SeverityWarning,
			Dataset:  dataset,
			Field:    types.FieldInvoiceDate.Label(),
			Rule:     RuleDateMapped,
			Message:  "no date column mapped; dates will not be compared",
		})
	}

	return errs
}

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// ValidationOptions contains options for record validation.
type ValidationOptions struct {
	// MaxPerRule caps how many warnings each rule reports. 0 means no cap.
	// Default: 20
	MaxPerRule int

	// CheckGSTINFormat enables the 15-character GSTIN layout check.
	// Default: true
	CheckGSTINFormat bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxPerRule:       20,
		CheckGSTINFormat: true,
	}
}

// ValidationResult contains the results of record validation.
type ValidationResult struct {
	// Errors holds the reported warnings, capped per rule.
	Errors []*ValidationError

	// Counts holds the uncapped number of findings per rule.
	Counts map[string]int

	// RecordsValidated is the number of records inspected.
	RecordsValidated int
}

// ValidateRecords reports data quality warnings for normalized records.
func ValidateRecords(dataset string, records []types.Record, m types.Mapping) *ValidationResult {
	return ValidateRecordsWithOptions(dataset, records, m, DefaultValidationOptions())
}

// ValidateRecordsWithOptions is ValidateRecords with explicit options.
func ValidateRecordsWithOptions(dataset string, records []types.Record, m types.Mapping, options ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Counts:           make(map[string]int),
		RecordsValidated: len(records),
	}

	report := func(row int, f types.Field, rule, value, message string) {
		result.Counts[rule]++
		if options.MaxPerRule > 0 && result.Counts[rule] > options.MaxPerRule {
			return
		}
		result.Errors = append(result.Errors, &ValidationError{
			Severity:  SeverityWarning,
			Dataset:   dataset,
			Field:     f.Label(),
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: row,
		})
	}

	for i, r := range records {
		row := i + 1

		switch {
		case r.GSTIN == "":
			report(row, types.FieldGSTIN, RuleGSTINPresent, "", "GSTIN is empty")
		case options.CheckGSTINFormat && !gstinPattern.MatchString(r.GSTIN):
			report(row, types.FieldGSTIN, RuleGSTINFormat, r.GSTIN, "GSTIN does not have the 15-character layout")
		}

		if r.InvoiceNumber == "" {
			report(row, types.FieldInvoiceNumber, RuleInvoicePresent, rawText(r.Original[m.InvoiceNumber]),
				"invoice number is empty after normalization")
		}

		for _, f := range []types.Field{types.FieldTaxableValue, types.FieldTotalValue} {
			header := m.Get(f)
			if header == "" {
				continue
			}
			raw := rawText(r.Original[header])
			valid := r.TaxableValue.Valid
			if f == types.FieldTotalValue {
				valid = r.TotalValue.Valid
			}
			if raw != "" && !valid {
				report(row, f, RuleAmountNumeric, raw, "amount is not numeric and will be ignored")
			}
		}

		if r.HasDate() && !isoDate.MatchString(r.InvoiceDate) {
			report(row, types.FieldInvoiceDate, RuleDateFormat, r.InvoiceDate,
				"date is not DD/MM/YYYY, DD-MM-YYYY or YYYY-MM-DD and is compared as text")
		}
	}

	return result
}

func rawText(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// =============================================================================
// ERROR OUTPUT
// =============================================================================

// FormatErrors formats validation errors for display.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes the formatted errors to filePath with a timestamped
// header. Parent directories are created as needed.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("GSTR-2B Reconciliation - Validation Log\n")
	builder.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC3339)))
	builder.WriteString(FormatErrors(errors))

	if err := os.WriteFile(filePath, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
