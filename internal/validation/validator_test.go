package validation

import (
	"os"
	"path/filepath"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/normalizer"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func rules(errs []*ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Rule
	}
	return out
}

var _ = Describe("ValidateMapping", func() {
	headers := []string{"GSTIN", "Bill No", "Bill Date", "Amount"}

	It("accepts a complete mapping", func() {
		errs := ValidateMapping("Books", types.Mapping{
			GSTIN: "GSTIN", InvoiceNumber: "Bill No", InvoiceDate: "Bill Date", TotalValue: "Amount",
		}, headers)
		Expect(errs).To(BeEmpty())
	})

	It("flags unmapped required fields as errors", func() {
		errs := ValidateMapping("Books", types.Mapping{InvoiceDate: "Bill Date", TotalValue: "Amount"}, headers)
		Expect(HasErrors(errs)).To(BeTrue())
		Expect(rules(errs)).To(Equal([]string{RuleRequiredField, RuleRequiredField}))
		Expect(errs[0].Field).To(Equal("GSTIN"))
		Expect(errs[1].Field).To(Equal("Invoice Number"))
	})

	It("flags mapped headers missing from the file", func() {
		errs := ValidateMapping("Books", types.Mapping{
			GSTIN: "GSTIN", InvoiceNumber: "Invoice No", InvoiceDate: "Bill Date", TotalValue: "Amount",
		}, headers)
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Rule).To(Equal(RuleHeaderExists))
		Expect(errs[0].Value).To(Equal("Invoice No"))
		Expect(errs[0].Severity).To(Equal(SeverityError))
	})

	It("warns when amounts and dates are unmapped", func() {
		errs := ValidateMapping("GSTR-2B", types.Mapping{GSTIN: "GSTIN", InvoiceNumber: "Bill No"}, headers)
		Expect(HasErrors(errs)).To(BeFalse())
		Expect(rules(errs)).To(ConsistOf(RuleAmountMapped, RuleDateMapped))
	})

	It("warns when one header serves two fields", func() {
		errs := ValidateMapping("Books", types.Mapping{
			GSTIN: "GSTIN", InvoiceNumber: "Bill No", InvoiceDate: "Bill Date",
			TaxableValue: "Amount", TotalValue: "Amount",
		}, headers)
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Rule).To(Equal(RuleHeaderReuse))
		Expect(errs[0].Message).To(ContainSubstring("Taxable Value"))
	})
})

var _ = Describe("ValidateRecords", func() {
	m := types.Mapping{GSTIN: "g", InvoiceNumber: "n", InvoiceDate: "d", TaxableValue: "t", TotalValue: "v"}

	It("reports nothing for clean records", func() {
		records := normalizer.Normalize([]types.Row{
			{"g": "27AAAAA0000A1Z5", "n": "INV-1", "d": "01/04/2024", "t": "100", "v": "118"},
		}, m)
		result := ValidateRecords("Books", records, m)
		Expect(result.Errors).To(BeEmpty())
		Expect(result.RecordsValidated).To(Equal(1))
	})

	It("reports data quality problems as warnings with row numbers", func() {
		records := normalizer.Normalize([]types.Row{
			{"g": "27AAAAA0000A1Z5", "n": "INV-1", "d": "01/04/2024", "v": "118"},
			{"g": "", "n": "000", "d": "1-Apr-24", "t": "abc", "v": ""},
			{"g": "27AAAAA0000", "n": "INV-3"},
		}, m)
		result := ValidateRecords("Books", records, m)

		Expect(HasErrors(result.Errors)).To(BeFalse())
		Expect(rules(result.Errors)).To(Equal([]string{
			RuleGSTINPresent, RuleInvoicePresent, RuleAmountNumeric, RuleDateFormat,
			RuleGSTINFormat,
		}))
		Expect(result.Errors[0].RowNumber).To(Equal(2))
		Expect(result.Errors[2].Value).To(Equal("abc"))
		Expect(result.Errors[4].RowNumber).To(Equal(3))
	})

	It("caps warnings per rule but keeps counting", func() {
		var rows []types.Row
		for i := 0; i < 5; i++ {
			rows = append(rows, types.Row{"n": "1"})
		}
		records := normalizer.Normalize(rows, m)
		result := ValidateRecordsWithOptions("Books", records, m, ValidationOptions{MaxPerRule: 2})
		Expect(result.Errors).To(HaveLen(2))
		Expect(result.Counts[RuleGSTINPresent]).To(Equal(5))
	})

	It("can skip the GSTIN layout check", func() {
		records := normalizer.Normalize([]types.Row{{"g": "URP", "n": "1"}}, m)
		result := ValidateRecordsWithOptions("Books", records, m, ValidationOptions{})
		Expect(result.Errors).To(BeEmpty())
	})
})

var _ = Describe("FormatErrors", func() {
	It("says so when there is nothing to report", func() {
		Expect(FormatErrors(nil)).To(Equal("No validation errors."))
	})

	It("numbers each entry", func() {
		out := FormatErrors([]*ValidationError{
			{Severity: SeverityError, Dataset: "Books", Field: "GSTIN", Message: "required field is not mapped to a column"},
			{Severity: SeverityWarning, Dataset: "Books", Field: "GSTIN", Message: "GSTIN is empty", RowNumber: 4},
		})
		Expect(out).To(ContainSubstring("1. [ERROR] Books, Field 'GSTIN'"))
		Expect(out).To(ContainSubstring("2. [WARNING] Books row 4, Field 'GSTIN': GSTIN is empty"))
	})
})

var _ = Describe("WriteErrorLog", func() {
	It("writes the formatted errors", func() {
		path := filepath.Join(GinkgoT().TempDir(), "logs", "validation.log")
		Expect(WriteErrorLog([]*ValidationError{{Severity: SeverityWarning, Dataset: "GSTR-2B", Field: "Invoice Date", Message: "m"}}, path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("[WARNING] GSTR-2B, Field 'Invoice Date'"))
	})
})
