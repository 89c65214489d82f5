package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yadejumobi/foundrymesh/core"
)

// SpanExporter receives finished spans for external consumption.
type SpanExporter interface {
	Export(span core.TraceSpan)
}

// OTLPConfig configures the OpenTelemetry bridge.
type OTLPConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Endpoint       string  `mapstructure:"endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Insecure       bool    `mapstructure:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate"` // 0.0 to 1.0
}

// OTLPExporter pushes finished spans to an OTLP HTTP collector. Run and
// span correlation identifiers travel as attributes; the collector's
// storage format is its own concern.
type OTLPExporter struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// Span attribute keys used for run correlation.
const (
	AttrRunID    = "foundrymesh.run_id"
	AttrSpanID   = "foundrymesh.span_id"
	AttrParentID = "foundrymesh.parent_span_id"
	AttrAgent    = "foundrymesh.agent"
)

// NewOTLPExporter creates the bridge. The endpoint defaults to the
// conventional local collector address.
func NewOTLPExporter(ctx context.Context, cfg OTLPConfig) (*OTLPExporter, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "foundrymesh"
	}
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1.0 {
		cfg.SampleRate = 1.0
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	expOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		expOpts = append(expOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, expOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)

	return &OTLPExporter{
		provider: provider,
		tracer:   provider.Tracer("foundrymesh"),
	}, nil
}

// Export implements SpanExporter. Timestamps are replayed exactly so the
// collector sees the span's real duration.
func (e *OTLPExporter) Export(span core.TraceSpan) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, span.RunID),
		attribute.String(AttrSpanID, span.ID),
	}
	if span.ParentID != "" {
		attrs = append(attrs, attribute.String(AttrParentID, span.ParentID))
	}
	if span.Agent != "" {
		attrs = append(attrs, attribute.String(AttrAgent, span.Agent))
	}
	for k, v := range span.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	_, s := e.tracer.Start(
		context.Background(),
		span.Label,
		oteltrace.WithTimestamp(span.StartedAt),
		oteltrace.WithAttributes(attrs...),
	)
	s.End(oteltrace.WithTimestamp(span.EndedAt))
}

// Shutdown flushes buffered spans and stops the provider.
func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	if e.provider != nil {
		return e.provider.Shutdown(ctx)
	}
	return nil
}
