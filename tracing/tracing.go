// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "rivaas.dev/conduit/tracing"

// Provider names a tracing backend.
type Provider string

const (
	// NoopProvider records nothing.
	NoopProvider Provider = "noop"
	// StdoutProvider pretty-prints spans.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports spans to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// OTLPGRPCProvider exports spans to an OTLP/gRPC collector.
	OTLPGRPCProvider Provider = "otlp-grpc"
)

// ErrInvalidConfig is returned by New for inconsistent options.
var ErrInvalidConfig = errors.New("invalid tracing configuration")

// Tracer holds the tracer provider and propagator.
type Tracer struct {
	provider       Provider
	providerSet    int
	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	otlpInsecure   bool
	sampleRate     float64
	registerGlobal bool

	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	tracer         trace.Tracer
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithStdout selects the stdout exporter.
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSet++
	}
}

// WithOTLP exports to the OTLP/HTTP collector at endpoint. Plain http
// endpoints are used without TLS.
func WithOTLP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSet++
	}
}

// WithOTLPGRPC exports to the OTLP/gRPC collector at endpoint, a host:port.
// The connection is made lazily, so New succeeds without a collector.
func WithOTLPGRPC(endpoint string, insecure bool) Option {
	return func(t *Tracer) {
		t.provider = OTLPGRPCProvider
		t.otlpEndpoint = endpoint
		t.otlpInsecure = insecure
		t.providerSet++
	}
}

// WithNoop disables export.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSet++
	}
}

// WithTracerProvider uses a caller-managed provider. Shutdown does not stop it.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = tp
		t.providerSet++
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate samples the given fraction of new traces. Child spans
// follow their parent's decision.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = max(0, min(rate, 1)) }
}

// WithPropagator replaces the W3C trace-context and baggage propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) { t.propagator = p }
}

// WithGlobalTracerProvider registers the provider and propagator globally.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// New creates a Tracer. ctx bounds exporter setup. The default provider is noop.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:       NoopProvider,
		serviceName:    "conduit",
		serviceVersion: "dev",
		sampleRate:     1,
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.providerSet > 1 {
		return nil, fmt.Errorf("%w: only one provider option may be used", ErrInvalidConfig)
	}
	if t.serviceName == "" {
		return nil, fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfig)
	}

	if t.tracerProvider == nil {
		if err := t.initProvider(ctx); err != nil {
			return nil, err
		}
	}
	t.tracer = t.tracerProvider.Tracer(tracerName)

	if t.registerGlobal {
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(ctx context.Context, opts ...Option) *Tracer {
	t, err := New(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize tracing: %v", err))
	}
	return t
}

func (t *Tracer) initProvider(ctx context.Context) error {
	var exporter sdktrace.SpanExporter
	switch t.provider {
	case NoopProvider:
		t.tracerProvider = noop.NewTracerProvider()
		return nil
	case StdoutProvider:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		exporter = exp
	case OTLPProvider:
		exp, err := otlptracehttp.New(ctx, otlpOptions(t.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		exporter = exp
	case OTLPGRPCProvider:
		var opts []otlptracegrpc.Option
		if t.otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create otlp grpc exporter: %w", err)
		}
		exporter = exp
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, t.provider)
	}

	t.sdkProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.serviceName),
			semconv.ServiceVersion(t.serviceVersion),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	)
	t.tracerProvider = t.sdkProvider
	return nil
}

func otlpOptions(endpoint string) []otlptracehttp.Option {
	if endpoint == "" {
		return nil
	}
	var opts []otlptracehttp.Option
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = rest
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return append(opts, otlptracehttp.WithEndpoint(endpoint))
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// TracerProvider returns the underlying provider.
func (t *Tracer) TracerProvider() trace.TracerProvider { return t.tracerProvider }

// Propagator returns the propagator used to extract incoming trace context.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Start starts a span named name as a child of the span in ctx.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes and stops a provider the Tracer created.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdkProvider == nil {
		return nil
	}
	return t.sdkProvider.Shutdown(ctx)
}

// TraceID returns the trace ID in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
