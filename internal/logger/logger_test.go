package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func captureOutput(t *testing.T, level string, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	InitLogger(level)
	defer InitLogger("info")

	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("tile fetched") },
			contains: []string{"tile fetched", "level=INFO"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("conditional request", Fields{"etag": `"abc"`}) },
			contains: []string{"conditional request", "level=DEBUG", "etag"},
		},
		{
			name:     "debug log hidden at info level",
			level:    "info",
			logFn:    func() { Debug("conditional request") },
			excludes: []string{"conditional request"},
		},
		{
			name:     "warn with merged fields",
			level:    "warn",
			logFn:    func() { Warn("rejected", Fields{"uri": "http://x/1.png"}, Fields{"status": 500}) },
			contains: []string{"rejected", "level=WARN", "uri=http://x/1.png", "status=500"},
		},
		{
			name:     "error log",
			level:    "error",
			logFn:    func() { Error("write failed", Fields{"error": "disk full"}) },
			contains: []string{"write failed", "level=ERROR", `error="disk full"`},
		},
		{
			name:     "child logger keeps fields",
			level:    "info",
			logFn:    func() { With(Fields{"handle": "h1"}).Info("acquired") },
			contains: []string{"acquired", "handle=h1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, tt.logFn)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("fatal"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestMergeFields_Sorted(t *testing.T) {
	got := mergeFields(Fields{"b": 2, "a": 1})
	assert.Equal(t, []interface{}{"a", 1, "b", 2}, got)
}

func TestContextLogging(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	out := captureOutput(t, "debug", func() {
		WarnContext(ctx, "fetch failed", Fields{"uri": "http://tiles/1.png"})
		DebugContext(context.Background(), "no span")
	})
	assert.Contains(t, out, "trace_id="+sc.TraceID().String())
	assert.Contains(t, out, "span_id="+sc.SpanID().String())
	assert.Contains(t, out, "uri=http://tiles/1.png")
	assert.Contains(t, out, "no span")
	assert.Equal(t, 1, strings.Count(out, "trace_id="))
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(slog.NewTextHandler(buf, nil))

	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))

	WarnContext(ctx, "stored logger")
	assert.Contains(t, buf.String(), "stored logger")
}
