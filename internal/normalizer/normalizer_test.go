package normalizer

import (
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("GSTIN", func() {
	It("uppercases and strips whitespace", func() {
		Expect(GSTIN(" 27aaaaa 0000a1z5\t")).To(Equal("27AAAAA0000A1Z5"))
	})

	It("returns an empty string when absent", func() {
		Expect(GSTIN(nil)).To(Equal(""))
	})
})

var _ = Describe("InvoiceNumber", func() {
	DescribeTable("collapses formatting variants",
		func(in any, want string) {
			Expect(InvoiceNumber(in)).To(Equal(want))
		},
		Entry("hyphenated", "INV-001", "INV001"),
		Entry("lowercase with space", "inv 001", "INV001"),
		Entry("plain", "INV001", "INV001"),
		Entry("slashes", "2024/25/0042", "2024250042"),
		Entry("leading zeros", "000123", "123"),
		Entry("all zeros", "0000", ""),
		Entry("zero with separators", "0-0/0", ""),
		Entry("numeric cell", float64(42), "42"),
	)

	It("returns an empty string when absent", func() {
		Expect(InvoiceNumber(nil)).To(Equal(""))
	})

	It("is idempotent", func() {
		for _, raw := range []string{"INV-001", " 0a/b-c 9 ", "0000", "x", "00-INV/01"} {
			once := InvoiceNumber(raw)
			Expect(InvoiceNumber(once)).To(Equal(once))
		}
	})
})

var _ = Describe("Amount", func() {
	It("strips thousands separators and whitespace", func() {
		a := Amount(" 1,23,456.50 ")
		Expect(a.Valid).To(BeTrue())
		Expect(a.Decimal.Equal(decimal.RequireFromString("123456.5"))).To(BeTrue())
	})

	It("accepts numeric cells", func() {
		a := Amount(float64(1000))
		Expect(a.Valid).To(BeTrue())
		Expect(a.Decimal.Equal(decimal.NewFromInt(1000))).To(BeTrue())
	})

	It("accepts negative amounts", func() {
		a := Amount("-250.75")
		Expect(a.Valid).To(BeTrue())
		Expect(a.Decimal.String()).To(Equal("-250.75"))
	})

	DescribeTable("is absent, never zero, for unusable input",
		func(in any) {
			Expect(Amount(in).Valid).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("text", "abc"),
		Entry("currency symbol", "₹100"),
	)

	It("is absent for a missing cell", func() {
		Expect(Amount(nil).Valid).To(BeFalse())
	})
})

var _ = Describe("Date", func() {
	DescribeTable("re-emits recognized shapes as YYYY-MM-DD",
		func(in, want string) {
			Expect(Date(in)).To(Equal(want))
		},
		Entry("DD/MM/YYYY", "01/04/2024", "2024-04-01"),
		Entry("YYYY-MM-DD", "2024-04-01", "2024-04-01"),
		Entry("DD-MM-YYYY", "01-04-2024", "2024-04-01"),
		Entry("surrounding whitespace", " 15/03/2024 ", "2024-03-15"),
	)

	DescribeTable("passes other shapes through",
		func(in, want string) {
			Expect(Date(in)).To(Equal(want))
		},
		Entry("single-digit day", "1/4/2024", "1/4/2024"),
		Entry("month name", "01-Apr-2024", "01-Apr-2024"),
		Entry("dotted", "01.04.2024", "01.04.2024"),
	)

	It("returns an empty string when absent", func() {
		Expect(Date(nil)).To(Equal(""))
		Expect(Date("")).To(Equal(""))
	})
})

var _ = Describe("Normalize", func() {
	var (
		rows    []types.Row
		mapping types.Mapping
		records []types.Record
	)

	BeforeEach(func() {
		rows = []types.Row{
			{"GSTIN of supplier": "27aaaaa0000a1z5", "Invoice No": "INV-001", "Invoice Date": "01/04/2024", "Taxable Value": "847.46", "Invoice Value": "1,000"},
			{"GSTIN of supplier": "29BBBBB1111B1Z5", "Invoice No": "0042", "Invoice Date": "junk", "Taxable Value": "n/a", "Invoice Value": ""},
		}
		mapping = types.Mapping{
			GSTIN:         "GSTIN of supplier",
			InvoiceNumber: "Invoice No",
			InvoiceDate:   "Invoice Date",
			TaxableValue:  "Taxable Value",
			TotalValue:    "Invoice Value",
		}
	})

	JustBeforeEach(func() {
		records = Normalize(rows, mapping)
	})

	It("produces one record per row in order", func() {
		Expect(records).To(HaveLen(2))
		Expect(records[0].InvoiceNumber).To(Equal("INV001"))
		Expect(records[1].InvoiceNumber).To(Equal("42"))
	})

	It("normalizes every mapped field", func() {
		r := records[0]
		Expect(r.GSTIN).To(Equal("27AAAAA0000A1Z5"))
		Expect(r.InvoiceDate).To(Equal("2024-04-01"))
		Expect(r.TaxableValue.Decimal.String()).To(Equal("847.46"))
		Expect(r.TotalValue.Decimal.Equal(decimal.NewFromInt(1000))).To(BeTrue())
	})

	It("degrades malformed cells without failing the batch", func() {
		r := records[1]
		Expect(r.InvoiceDate).To(Equal("junk"))
		Expect(r.TaxableValue.Valid).To(BeFalse())
		Expect(r.TotalValue.Valid).To(BeFalse())
	})

	It("keeps the original row", func() {
		Expect(records[0].Original).To(HaveKeyWithValue("Invoice No", "INV-001"))
	})

	When("optional fields are unmapped", func() {
		BeforeEach(func() {
			mapping.InvoiceDate = ""
			mapping.TotalValue = ""
		})

		It("omits them", func() {
			Expect(records[0].HasDate()).To(BeFalse())
			Expect(records[0].TotalValue.Valid).To(BeFalse())
			Expect(records[0].TaxableValue.Valid).To(BeTrue())
		})
	})

	When("a mapped column is missing from a row", func() {
		BeforeEach(func() {
			rows = []types.Row{{"Invoice No": "7"}}
		})

		It("keys the record with an empty GSTIN", func() {
			Expect(records[0].GSTIN).To(Equal(""))
			Expect(records[0].InvoiceNumber).To(Equal("7"))
		})
	})
})
