package logging_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/internal/logging"
)

var _ = Describe("New", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	DescribeTable("level names",
		func(name string, want logrus.Level) {
			logger := logging.New(name, out)
			Expect(logger.GetLevel()).To(Equal(want))
			Expect(out.String()).To(BeEmpty())
		},
		Entry("trace", "trace", logrus.TraceLevel),
		Entry("debug", "DEBUG", logrus.DebugLevel),
		Entry("info", "info", logrus.InfoLevel),
		Entry("warning", "warning", logrus.WarnLevel),
		Entry("error", "error", logrus.ErrorLevel),
	)

	It("should fall back to the environment", func() {
		GinkgoT().Setenv(logging.LevelEnv, "debug")

		logger := logging.New("", out)
		Expect(logger.GetLevel()).To(Equal(logrus.DebugLevel))
	})

	It("should default to info", func() {
		GinkgoT().Setenv(logging.LevelEnv, "")

		logger := logging.New("", out)
		Expect(logger.GetLevel()).To(Equal(logrus.InfoLevel))
	})

	It("should warn about an unknown level", func() {
		logger := logging.New("loud", out)
		Expect(logger.GetLevel()).To(Equal(logrus.InfoLevel))
		Expect(out.String()).To(ContainSubstring("Invalid log level 'loud'"))
	})
})
