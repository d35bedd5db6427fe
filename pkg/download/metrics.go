package download

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/glorpus-work/tilefetch/internal/logger"
)

const meterName = "github.com/glorpus-work/tilefetch/pkg/download"

// fetchMetrics reports through the global OpenTelemetry meter and tracer
// providers, which are no-ops until the application installs real ones.
type fetchMetrics struct {
	tracer  trace.Tracer
	fetches metric.Int64Counter
	bytes   metric.Int64Counter
}

func newFetchMetrics() *fetchMetrics {
	meter := otel.Meter(meterName)

	m := fetchMetrics{tracer: otel.Tracer(meterName)}
	var err error
	m.fetches, err = meter.Int64Counter("tilefetch.fetches",
		metric.WithDescription("Fetches by protocol and result"),
		metric.WithUnit("{fetch}"))
	if err != nil {
		logger.Warn("failed to create fetch counter", logger.Fields{"error": err})
		m.fetches = noop.Int64Counter{}
	}
	m.bytes, err = meter.Int64Counter("tilefetch.bytes",
		metric.WithDescription("Body bytes transferred"),
		metric.WithUnit("By"))
	if err != nil {
		logger.Warn("failed to create byte counter", logger.Fields{"error": err})
		m.bytes = noop.Int64Counter{}
	}
	return &m
}

// start opens the span covering one fetch.
func (m *fetchMetrics) start(ctx context.Context, uri, dest string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "fetch", trace.WithAttributes(
		attribute.String("url.full", uri),
		attribute.String("file.path", dest),
	))
}

// record counts res and ends span.
func (m *fetchMetrics) record(ctx context.Context, span trace.Span, scheme string, res Result) {
	span.SetAttributes(
		attribute.String("scheme", scheme),
		attribute.String("result", res.Status.String()),
		attribute.Int64("bytes", res.Bytes),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Status.String())
	}
	span.End()

	attrs := metric.WithAttributes(
		attribute.String("scheme", scheme),
		attribute.String("result", res.Status.String()),
	)
	m.fetches.Add(ctx, 1, attrs)
	if res.Bytes > 0 {
		m.bytes.Add(ctx, res.Bytes, metric.WithAttributes(attribute.String("scheme", scheme)))
	}
}
