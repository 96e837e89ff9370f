package telemetry

import (
	"context"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	instrumentationName = "go.trai.ch/evoke"
	serviceName         = "evoke"
)

// Span attribute keys.
const (
	AttrInputs  = "evoke.inputs"
	AttrOutputs = "evoke.outputs"
	AttrCached  = "evoke.cached"
)

// OTel records every vertex as an OpenTelemetry span.
type OTel struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOTel creates an OTel backend. Spans are exported over OTLP/gRPC when
// endpoint is set and kept in process otherwise.
func NewOTel(ctx context.Context, endpoint string) (*OTel, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTelemetryInitFailed.Error())
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if endpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTelemetryInitFailed.Error()), "endpoint", endpoint)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return NewOTelWithProvider(tp), nil
}

// NewOTelWithProvider creates an OTel backend on an existing provider.
func NewOTelWithProvider(tp *sdktrace.TracerProvider) *OTel {
	return &OTel{provider: tp, tracer: tp.Tracer(instrumentationName)}
}

// Record starts a span named after the unit of work.
func (o *OTel) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := ports.NewVertexConfig(opts...)
	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.StringSlice(AttrInputs, cfg.Inputs),
		attribute.StringSlice(AttrOutputs, cfg.Outputs),
	))

	v := &otelVertex{span: span}
	return ports.ContextWithVertex(ctx, v), v
}

// Close flushes pending spans and shuts the provider down.
func (o *OTel) Close() error {
	if err := o.provider.Shutdown(context.Background()); err != nil {
		return zerr.Wrap(err, "failed to shut down tracer provider")
	}
	return nil
}

type otelVertex struct {
	span trace.Span
	once sync.Once
}

func (v *otelVertex) Stdout() io.Writer {
	return &spanWriter{span: v.span, stream: "stdout"}
}

func (v *otelVertex) Stderr() io.Writer {
	return &spanWriter{span: v.span, stream: "stderr"}
}

func (v *otelVertex) Log(level domain.LogLevel, msg string) {
	v.span.AddEvent("log", trace.WithAttributes(
		attribute.String("level", level.String()),
		attribute.String("message", msg),
	))
}

func (v *otelVertex) Complete(err error) {
	v.once.Do(func() {
		if err != nil {
			v.span.RecordError(err)
			v.span.SetStatus(codes.Error, err.Error())
		} else {
			v.span.SetStatus(codes.Ok, "")
		}
		v.span.End()
	})
}

func (v *otelVertex) Cached() {
	v.span.SetAttributes(attribute.Bool(AttrCached, true))
}

// spanWriter adds every write to the span as an output event.
type spanWriter struct {
	span   trace.Span
	stream string
}

func (w *spanWriter) Write(p []byte) (int, error) {
	w.span.AddEvent("output", trace.WithAttributes(
		attribute.String("stream", w.stream),
		attribute.String("message", string(p)),
	))
	return len(p), nil
}
