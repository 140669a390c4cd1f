package logging

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("ParseLevel", func() {
	DescribeTable("maps names to levels",
		func(name string, want zerolog.Level) {
			level, err := ParseLevel(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(want))
		},
		Entry("empty", "", zerolog.InfoLevel),
		Entry("debug", "debug", zerolog.DebugLevel),
		Entry("mixed case", "WARN", zerolog.WarnLevel),
		Entry("warning", "warning", zerolog.WarnLevel),
		Entry("error", "error", zerolog.ErrorLevel),
	)

	It("rejects unknown names", func() {
		_, err := ParseLevel("loud")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("New", func() {
	var console *bytes.Buffer

	BeforeEach(func() {
		console = &bytes.Buffer{}
	})

	It("filters below the configured level", func() {
		logger, closer, err := New(Options{Level: "warn", Console: console, NoColor: true})
		Expect(err).NotTo(HaveOccurred())
		defer closer.Close()

		logger.Info().Msg("quiet")
		logger.Warn().Msg("loud")
		Expect(console.String()).NotTo(ContainSubstring("quiet"))
		Expect(console.String()).To(ContainSubstring("loud"))
	})

	It("lets verbose override the level", func() {
		logger, _, err := New(Options{Level: "error", Verbose: true, Console: console, NoColor: true})
		Expect(err).NotTo(HaveOccurred())
		logger.Debug().Msg("detail")
		Expect(console.String()).To(ContainSubstring("detail"))
	})

	It("writes JSON lines to the log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "logs", "run.log")
		logger, closer, err := New(Options{File: path, Console: console, NoColor: true})
		Expect(err).NotTo(HaveOccurred())
		logger.Info().Str("dataset", "Books").Msg("loaded")
		Expect(closer.Close()).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"dataset":"Books"`))
		Expect(string(data)).To(ContainSubstring(`"message":"loaded"`))
	})
})

var _ = Describe("WithComponent", func() {
	It("tags events from the base logger", func() {
		var buf bytes.Buffer
		SetBase(zerolog.New(&buf))
		DeferCleanup(SetBase, zerolog.Nop())

		log := WithComponent("reconciler")
		log.Info().Msg("done")
		Expect(buf.String()).To(ContainSubstring(`"component":"reconciler"`))
	})
})
