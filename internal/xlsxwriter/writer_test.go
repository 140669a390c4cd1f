package xlsxwriter

import (
	"bytes"
	"path/filepath"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/normalizer"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var (
	twoBHeaders  = []string{"GSTIN", "Invoice No", "Date", "Value"}
	booksHeaders = []string{"GSTIN", "Bill No", "Date", "Amount"}
)

func sampleResult() reconciler.Result {
	twoB := normalizer.Normalize([]types.Row{
		{"GSTIN": "27AAAAA0000A1Z5", "Invoice No": "INV-1", "Date": "01/04/2024", "Value": "1000"},
		{"GSTIN": "27AAAAA0000A1Z5", "Invoice No": "INV-2", "Date": "02/04/2024", "Value": "500"},
		{"GSTIN": "27AAAAA0000A1Z5", "Invoice No": "INV-3", "Date": "03/04/2024", "Value": "700"},
	}, types.Mapping{GSTIN: "GSTIN", InvoiceNumber: "Invoice No", InvoiceDate: "Date", TotalValue: "Value"})

	books := normalizer.Normalize([]types.Row{
		{"GSTIN": "27AAAAA0000A1Z5", "Bill No": "inv1", "Date": "2024-04-01", "Amount": "1000"},
		{"GSTIN": "27AAAAA0000A1Z5", "Bill No": "INV 2", "Date": "2024-04-05", "Amount": "560"},
		{"GSTIN": "27AAAAA0000A1Z5", "Bill No": "X-9", "Date": "2024-04-03", "Amount": "700"},
	}, types.Mapping{GSTIN: "GSTIN", InvoiceNumber: "Bill No", InvoiceDate: "Date", TotalValue: "Amount"})

	return reconciler.Reconcile(twoB, books)
}

func build(options WriteOptions) *excelize.File {
	f, err := Build(sampleResult(), options)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(f.Close)
	return f
}

func rowsOf(f *excelize.File, sheet string) [][]string {
	rows, err := f.GetRows(sheet)
	Expect(err).NotTo(HaveOccurred())
	return rows
}

var _ = Describe("Build", func() {
	var options WriteOptions

	BeforeEach(func() {
		options = DefaultWriteOptions()
		options.TwoBHeaders = twoBHeaders
		options.BooksHeaders = booksHeaders
	})

	It("creates every sheet in order", func() {
		Expect(build(options).GetSheetList()).To(Equal(Sheets))
	})

	It("writes the summary counts and details", func() {
		options.Details = [][2]string{{"Tolerance", "1"}}
		rows := rowsOf(build(options), SheetSummary)
		Expect(rows[0]).To(Equal([]string{"Metric", "Count"}))
		Expect(rows[1]).To(Equal([]string{"2B Rows", "3"}))
		Expect(rows[3]).To(Equal([]string{"Exact Matches", "1"}))
		Expect(rows[4]).To(Equal([]string{"Value Mismatches", "1"}))
		Expect(rows[10]).To(Equal([]string{"Tolerance", "1"}))
	})

	It("lays out pairs side by side with prefixed collisions", func() {
		rows := rowsOf(build(options), SheetExactMatches)
		Expect(rows[0]).To(Equal([]string{
			"matchType", "GSTIN", "Invoice No", "Date", "Value",
			BooksSeparator, "Books: GSTIN", "Bill No", "Books: Date", "Amount",
		}))
		Expect(rows[1][0]).To(Equal("Exact"))
		Expect(rows[1][2]).To(Equal("INV-1"))
		Expect(rows[1][7]).To(Equal("inv1"))
	})

	It("lists the diffs of each mismatch", func() {
		rows := rowsOf(build(options), SheetValueMismatches)
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][0]).To(Equal("Date, Value"))
	})

	It("gives the reason of each probable match", func() {
		rows := rowsOf(build(options), SheetProbableMatches)
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][0]).To(Equal(reconciler.ProbableMatchReason))
		Expect(rows[1][2]).To(Equal("INV-3"))
		Expect(rows[1][7]).To(Equal("X-9"))
	})

	It("writes single-dataset sheets with their own headers", func() {
		f := build(options)
		missing := rowsOf(f, SheetMissingInBooks)
		Expect(missing[0]).To(Equal(twoBHeaders))
		Expect(missing[1][1]).To(Equal("INV-3"))

		missing2B := rowsOf(f, SheetMissingIn2B)
		Expect(missing2B[0]).To(Equal(booksHeaders))
		Expect(missing2B[1][1]).To(Equal("X-9"))
	})

	It("keeps a header row on empty sheets", func() {
		rows := rowsOf(build(options), SheetDuplicate2B)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0]).To(Equal(twoBHeaders))
	})

	It("freezes the header row", func() {
		panes, err := build(options).GetPanes(SheetExactMatches)
		Expect(err).NotTo(HaveOccurred())
		Expect(panes.Freeze).To(BeTrue())
		Expect(panes.YSplit).To(Equal(1))
	})

	When("headers are not given", func() {
		BeforeEach(func() {
			options = DefaultWriteOptions()
		})

		It("collects them from the records, sorted", func() {
			rows := rowsOf(build(options), SheetMissingInBooks)
			Expect(rows[0]).To(Equal([]string{"Date", "GSTIN", "Invoice No", "Value"}))
		})
	})
})

var _ = Describe("Write", func() {
	It("saves a readable workbook, creating the directory", func() {
		path := filepath.Join(GinkgoT().TempDir(), "out", "reconciliation.xlsx")
		Expect(Write(sampleResult(), path)).To(Succeed())

		f, err := excelize.OpenFile(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		Expect(f.GetSheetList()).To(Equal(Sheets))
	})
})

var _ = Describe("WriteTo", func() {
	It("streams the workbook", func() {
		var buf bytes.Buffer
		Expect(WriteTo(sampleResult(), &buf, DefaultWriteOptions())).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		Expect(f.GetSheetList()).To(HaveLen(len(Sheets)))
	})
})

var _ = Describe("JoinDiffs", func() {
	It("joins with a comma", func() {
		Expect(JoinDiffs([]reconciler.Diff{reconciler.DiffDate, reconciler.DiffValue})).To(Equal("Date, Value"))
		Expect(JoinDiffs(nil)).To(Equal(""))
	})
})
