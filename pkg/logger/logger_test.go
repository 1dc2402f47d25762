package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/audio-relay/pkg/logger"
)

var _ = Describe("Logger", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("should create logger with info level", func() {
			log := logger.New("info", false, "dev")
			Expect(log).NotTo(BeNil())
			Expect(log.Enabled(ctx, slog.LevelInfo)).To(BeTrue())
			Expect(log.Enabled(ctx, slog.LevelDebug)).To(BeFalse())
		})

		It("should respect debug level", func() {
			log := logger.New("debug", false, "dev")
			Expect(log.Enabled(ctx, slog.LevelDebug)).To(BeTrue())
		})

		It("should respect warn level", func() {
			log := logger.New("warn", false, "dev")
			Expect(log.Enabled(ctx, slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(ctx, slog.LevelWarn)).To(BeTrue())
		})

		It("should respect error level", func() {
			log := logger.New("error", false, "dev")
			Expect(log.Enabled(ctx, slog.LevelWarn)).To(BeFalse())
			Expect(log.Enabled(ctx, slog.LevelError)).To(BeTrue())
		})
	})

	Describe("NewWithWriter", func() {
		It("should write JSON records in prod", func() {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, "info", false, "prod")
			log.Info("extraction finished", slog.String("profile", "Native"))

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record).To(HaveKeyWithValue("msg", "extraction finished"))
			Expect(record).To(HaveKeyWithValue("environment", "prod"))
			Expect(record).To(HaveKeyWithValue("profile", "Native"))
		})

		It("should write text records outside prod", func() {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, "info", false, "dev")
			log.Info("hello")

			Expect(buf.String()).To(ContainSubstring("msg=hello"))
			Expect(buf.String()).To(ContainSubstring("environment=dev"))
		})
	})

	DescribeTable("ParseLevel",
		func(in string, want slog.Level) {
			Expect(logger.ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("upper case", "WARN", slog.LevelWarn),
		Entry("warning alias", "warning", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("unknown falls back to info", "loud", slog.LevelInfo),
	)

	Describe("Discard", func() {
		It("should not enable any level", func() {
			log := logger.Discard()
			Expect(log.Enabled(ctx, slog.LevelError)).To(BeFalse())
		})
	})
})
