package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the logging surface used by the tracer.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Tracer wraps an OpenTelemetry TracerProvider with helpers for spans,
// attributes and W3C trace context propagation. It is safe for concurrent use.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient builds the tracer provider, installs it and the W3C propagators
// as the OpenTelemetry globals and returns a Tracer around it.
//
// With EnableExport an OTLP HTTP exporter is attached through a batcher. A
// failure to create the exporter is fatal. logger may be nil.
func NewClient(cfg Config, logger Logger) *Tracer {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		client := otlptracehttp.NewClient()
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			if logger != nil {
				logger.Fatal("cannot initiate tracer", err, map[string]interface{}{
					"service": cfg.ServiceName,
				})
			}
			return nil
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if logger != nil {
		logger.Info("tracer initialized", nil, map[string]interface{}{
			"service": cfg.ServiceName,
			"env":     cfg.AppEnv,
			"export":  cfg.EnableExport,
		})
	}

	return &Tracer{tracer: tp, logger: logger}
}

// NewWithProvider wraps an existing provider without touching the globals.
func NewWithProvider(tp *trace.TracerProvider, logger Logger) *Tracer {
	return &Tracer{tracer: tp, logger: logger}
}

// Shutdown flushes pending spans and releases the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}
