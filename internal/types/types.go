// =============================================================================
// GSTR-2B Reconciler - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (Table, Row)
//   - normalizer (Row, Mapping -> Record)
//   - reconciler (Record)
//   - xlsxwriter (Record.Original)
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW TABULAR DATA
// =============================================================================

// Row is a single raw tabular record: column header -> raw scalar value.
// Values are strings, numbers, or nil when the cell is absent.
type Row map[string]any

// Table is a parsed dataset.
type Table struct {
	// Headers holds the whitespace-trimmed column headers in file order.
	Headers []string

	// Rows holds the data rows in file order.
	Rows []Row

	// Source is the path the table was read from, if any.
	Source string
}

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// Mapping names which header corresponds to each recognized semantic field.
// An empty string means the field is unmapped.
type Mapping struct {
	// GSTIN is required.
	GSTIN string `yaml:"gstin" json:"gstin"`

	// InvoiceNumber is required.
	InvoiceNumber string `yaml:"invoice_number" json:"invoiceNumber"`

	InvoiceDate  string `yaml:"invoice_date,omitempty" json:"invoiceDate,omitempty"`
	TaxableValue string `yaml:"taxable_value,omitempty" json:"taxableValue,omitempty"`
	TotalValue   string `yaml:"total_value,omitempty" json:"totalValue,omitempty"`
}

// Field identifies one semantic field of a Mapping.
type Field string

const (
	FieldGSTIN         Field = "gstin"
	FieldInvoiceNumber Field = "invoiceNumber"
	FieldInvoiceDate   Field = "invoiceDate"
	FieldTaxableValue  Field = "taxableValue"
	FieldTotalValue    Field = "totalValue"
)

// Fields lists every semantic field in display order.
var Fields = []Field{
	FieldGSTIN,
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldTaxableValue,
	FieldTotalValue,
}

// Label returns the human-readable field label.
func (f Field) Label() string {
	switch f {
	case FieldGSTIN:
		return "GSTIN"
	case FieldInvoiceNumber:
		return "Invoice Number"
	case FieldInvoiceDate:
		return "Invoice Date"
	case FieldTaxableValue:
		return "Taxable Value"
	case FieldTotalValue:
		return "Total Invoice Value"
	}
	return string(f)
}

// Required reports whether the field must be mapped before reconciling.
func (f Field) Required() bool {
	return f == FieldGSTIN || f == FieldInvoiceNumber
}

// Get returns the header mapped to the field.
func (m Mapping) Get(f Field) string {
	switch f {
	case FieldGSTIN:
		return m.GSTIN
	case FieldInvoiceNumber:
		return m.InvoiceNumber
	case FieldInvoiceDate:
		return m.InvoiceDate
	case FieldTaxableValue:
		return m.TaxableValue
	case FieldTotalValue:
		return m.TotalValue
	}
	return ""
}

// Set returns a copy of the mapping with the field mapped to header.
func (m Mapping) Set(f Field, header string) Mapping {
	switch f {
	case FieldGSTIN:
		m.GSTIN = header
	case FieldInvoiceNumber:
		m.InvoiceNumber = header
	case FieldInvoiceDate:
		m.InvoiceDate = header
	case FieldTaxableValue:
		m.TaxableValue = header
	case FieldTotalValue:
		m.TotalValue = header
	}
	return m
}

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// Record is the canonical form of one raw row. It is never mutated after
// normalization.
type Record struct {
	// GSTIN is uppercased with all whitespace removed. Never absent; a
	// missing value is the empty string.
	GSTIN string

	// InvoiceNumber is uppercased with whitespace, '-', '/' and leading
	// zeros removed.
	InvoiceNumber string

	// InvoiceDate is YYYY-MM-DD for recognized shapes, the trimmed source
	// text otherwise. The empty string means no date.
	InvoiceDate string

	TaxableValue decimal.NullDecimal
	TotalValue   decimal.NullDecimal

	// Original is the source row, kept for display and export only.
	Original Row
}

// keySeparator is the ASCII unit separator; it does not occur in GSTINs.
const keySeparator = "\x1f"

// Key returns the composite invoice key used for exact bucketing.
func (r Record) Key() string {
	return r.GSTIN + keySeparator + r.InvoiceNumber
}

// HasDate reports whether the record carries an invoice date.
func (r Record) HasDate() bool {
	return r.InvoiceDate != ""
}
