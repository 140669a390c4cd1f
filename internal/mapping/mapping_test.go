package mapping

import (
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Column headers of a GST portal GSTR-2B B2B download.
var portalHeaders = []string{
	"GSTIN of supplier", "Trade/Legal name", "Invoice number", "Invoice type",
	"Invoice Date", "Invoice Value(₹)", "Place of supply", "Taxable Value (₹)",
	"Integrated Tax(₹)",
}

// Column headers of an accounting package purchase register.
var registerHeaders = []string{
	"Date", "Particulars", "Supplier GSTIN", "Bill No", "Bill Date", "Taxable Amt", "Grand Total",
}

var _ = Describe("RegexSuggester", func() {
	It("maps a purchase register", func() {
		Expect(NewRegexSuggester().Suggest(registerHeaders)).To(Equal(types.Mapping{
			GSTIN:         "Supplier GSTIN",
			InvoiceNumber: "Bill No",
			InvoiceDate:   "Bill Date",
			TaxableValue:  "Taxable Amt",
			TotalValue:    "Grand Total",
		}))
	})

	It("maps what it recognizes in a portal download", func() {
		m := NewRegexSuggester().Suggest(portalHeaders)
		Expect(m.GSTIN).To(Equal("GSTIN of supplier"))
		Expect(m.InvoiceDate).To(Equal("Invoice Date"))
		Expect(m.TaxableValue).To(Equal("Taxable Value (₹)"))
		Expect(m.TotalValue).To(Equal("Invoice Value(₹)"))
		Expect(m.InvoiceNumber).To(BeEmpty())
	})

	It("picks the first matching header", func() {
		m := NewRegexSuggester().Suggest([]string{"Total Tax", "Grand Total"})
		Expect(m.TotalValue).To(Equal("Total Tax"))
	})

	It("returns an empty mapping when nothing matches", func() {
		Expect(NewRegexSuggester().Suggest([]string{"a", "b"})).To(Equal(types.Mapping{}))
	})

	It("lets one header serve two fields", func() {
		m := NewRegexSuggester().Suggest([]string{"GSTIN", "Inv No", "Total Taxable Value"})
		Expect(m.TaxableValue).To(Equal("Total Taxable Value"))
		Expect(m.TotalValue).To(Equal("Total Taxable Value"))
	})
})

var _ = Describe("FuzzySuggester", func() {
	It("matches exact phrases and uses each header once", func() {
		m := NewFuzzySuggester().Suggest([]string{"GSTIN", "Invoice Number", "Invoice Date"})
		Expect(m).To(Equal(types.Mapping{
			GSTIN:         "GSTIN",
			InvoiceNumber: "Invoice Number",
			InvoiceDate:   "Invoice Date",
		}))
	})

	It("requires a shared word", func() {
		m := NewFuzzySuggester().Suggest([]string{"Voucher No", "Narration"})
		Expect(m).To(Equal(types.Mapping{InvoiceNumber: "Voucher No"}))
	})

	It("handles an empty header list", func() {
		Expect(NewFuzzySuggester().Suggest(nil)).To(Equal(types.Mapping{}))
	})
})

var _ = Describe("Chain", func() {
	It("lets later suggesters fill the gaps", func() {
		m := Chain(NewRegexSuggester(), NewFuzzySuggester()).Suggest(portalHeaders)
		Expect(m.InvoiceNumber).To(Equal("Invoice number"))
		Expect(m.GSTIN).To(Equal("GSTIN of supplier"))
		Expect(m.TotalValue).To(Equal("Invoice Value(₹)"))
	})

	It("keeps a header the regex patterns gave to two fields", func() {
		m := Chain(NewRegexSuggester(), NewFuzzySuggester()).Suggest([]string{"GSTIN", "Inv No", "Total Taxable Value"})
		Expect(m).To(Equal(types.Mapping{
			GSTIN:         "GSTIN",
			InvoiceNumber: "Inv No",
			TaxableValue:  "Total Taxable Value",
			TotalValue:    "Total Taxable Value",
		}))
	})
})

var _ = Describe("Fill", func() {
	It("keeps configured fields", func() {
		m := Fill(types.Mapping{GSTIN: "CTIN"}, types.Mapping{GSTIN: "GSTIN", InvoiceNumber: "Inv"})
		Expect(m).To(Equal(types.Mapping{GSTIN: "CTIN", InvoiceNumber: "Inv"}))
	})

	It("skips headers already mapped elsewhere", func() {
		m := Fill(types.Mapping{TaxableValue: "Amount"}, types.Mapping{TotalValue: "Amount"})
		Expect(m.TotalValue).To(BeEmpty())
	})

	It("lets one suggested header fill several empty fields", func() {
		m := Fill(types.Mapping{GSTIN: "GSTIN"}, types.Mapping{TaxableValue: "Amount", TotalValue: "Amount"})
		Expect(m.TaxableValue).To(Equal("Amount"))
		Expect(m.TotalValue).To(Equal("Amount"))
	})
})

var _ = Describe("New", func() {
	DescribeTable("resolves strategy names",
		func(name string) {
			s, err := New(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		},
		Entry("regex", "regex"),
		Entry("fuzzy", "fuzzy"),
		Entry("chain", "chain"),
		Entry("default", ""),
	)

	It("rejects unknown names", func() {
		_, err := New("oracle")
		Expect(err).To(MatchError(ContainSubstring("unknown suggester")))
	})
})
