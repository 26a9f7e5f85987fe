// Package telemetry wires orca's pipeline execution to OpenTelemetry
// tracing, exporting spans over OTLP/gRPC when enabled.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/orcarun/orca"
)

// Config holds OpenTelemetry tracing settings.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Setup initializes OpenTelemetry tracing from cfg and installs the result
// as the global tracer provider. The returned func flushes and shuts down
// the exporter and should be deferred by the caller. When tracing is
// disabled or no endpoint is configured, Setup is a no-op: the global
// tracer provider is left untouched and the shutdown func does nothing.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "orca"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the package-level tracer used by Wrap.
func Tracer() trace.Tracer {
	return otel.Tracer("github.com/orcarun/orca")
}

// TracedGenerator wraps an orca.Generator, emitting one span per Generate
// call. Use Wrap to construct one.
type TracedGenerator struct {
	next   orca.Generator
	tracer trace.Tracer
}

// Wrap returns a Generator that forwards to next, recording a span named
// "orca.generate" around every call. The span carries the back-end's
// reported model name and token usage as attributes, and is marked as an
// error when Generate fails.
func Wrap(next orca.Generator) *TracedGenerator {
	return &TracedGenerator{next: next, tracer: Tracer()}
}

// Generate implements orca.Generator.
func (g *TracedGenerator) Generate(ctx context.Context, prompt orca.Prompt) (*orca.LLMResponse, error) {
	ctx, span := g.tracer.Start(ctx, "orca.generate")
	defer span.End()

	resp, err := g.next.Generate(ctx, prompt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("orca.model", resp.Model))
	if resp.Usage != nil {
		span.SetAttributes(
			attribute.Int("orca.usage.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int("orca.usage.completion_tokens", resp.Usage.CompletionTokens),
			attribute.Int("orca.usage.total_tokens", resp.Usage.TotalTokens),
		)
	}
	return resp, nil
}

// Capabilities implements orca.Generator.
func (g *TracedGenerator) Capabilities() orca.Capabilities {
	return g.next.Capabilities()
}

var _ orca.Generator = (*TracedGenerator)(nil)
