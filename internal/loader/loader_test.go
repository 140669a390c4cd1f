package loader

import (
	"os"
	"path/filepath"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("LoadFile", func() {
	var (
		dir     string
		dataset config.DatasetConfig
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		dataset = config.DefaultConfig().Books
	})

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
		return path
	}

	It("parses CSV files", func() {
		table, err := LoadFile(write("books.csv", "GSTIN,Bill No\nX,1\n"), dataset)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Headers).To(Equal([]string{"GSTIN", "Bill No"}))
	})

	It("treats .tsv files as tab separated", func() {
		table, err := LoadFile(write("books.TSV", "GSTIN\tBill No\nX\t1\n"), dataset)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows[0]).To(HaveKeyWithValue("Bill No", "1"))
	})

	It("parses XLSX files", func() {
		f := excelize.NewFile()
		Expect(f.SetSheetRow("Sheet1", "A1", &[]any{"GSTIN", "Invoice number"})).To(Succeed())
		Expect(f.SetSheetRow("Sheet1", "A2", &[]any{"X", "INV-1"})).To(Succeed())
		path := filepath.Join(dir, "2b.xlsx")
		Expect(f.SaveAs(path)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		table, err := LoadFile(path, dataset)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows[0]).To(HaveKeyWithValue("Invoice number", "INV-1"))
	})

	It("rejects unknown extensions", func() {
		_, err := LoadFile(write("books.pdf", "%PDF"), dataset)
		Expect(err).To(MatchError(ContainSubstring("unsupported file type")))
	})

	It("names the file in parse errors", func() {
		_, err := LoadFile(filepath.Join(dir, "absent.csv"), dataset)
		Expect(err).To(MatchError(ContainSubstring("absent.csv")))
	})
})

var _ = Describe("Load", func() {
	It("requires a path", func() {
		_, err := Load(config.DefaultConfig().TwoB)
		Expect(err).To(MatchError(ContainSubstring("GSTR-2B: no input file configured")))
	})
})
