package observability

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/haven-sec/rehearse/internal/types"
)

const serviceName = "rehearse"

// TracingConfig controls span recording. Disabled tracing costs nothing:
// callers get a noop provider.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Pretty prints multi-line spans for human reading during debugging.
	Pretty bool `mapstructure:"pretty" yaml:"pretty"`
}

// InitTracing builds a tracer provider writing spans to w and registers it
// globally. The returned shutdown flushes pending spans; call it on exit.
func InitTracing(cfg TracingConfig, w io.Writer) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.Pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to create trace exporter", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider, provider.Shutdown, nil
}
