package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("parseLevel", func() {
	DescribeTable("levels",
		func(level, env string, want slog.Level) {
			Expect(parseLevel(level, env)).To(Equal(want))
		},
		Entry("explicit debug", "debug", "production", slog.LevelDebug),
		Entry("explicit warn, any case", "WARN", "development", slog.LevelWarn),
		Entry("unknown in production", "loud", "production", slog.LevelInfo),
		Entry("unknown in development", "", "development", slog.LevelDebug),
	)
})

var _ = Describe("context logger", func() {
	It("should fall back to the process logger", func() {
		Expect(From(context.Background())).To(BeIdenticalTo(LoggerWrapper()))
		_, ok := Lookup(context.Background())
		Expect(ok).To(BeFalse())
	})

	It("should accumulate fields", func() {
		var out bytes.Buffer
		ctx := NewContext(context.Background(), slog.New(slog.NewTextHandler(&out, nil)))
		ctx = With(ctx, "traceID", "t-1")
		ctx = With(ctx, "userID", 3)

		From(ctx).Info("hello")
		Expect(out.String()).To(ContainSubstring("traceID=t-1"))
		Expect(out.String()).To(ContainSubstring("userID=3"))
	})
})
