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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "rivaas.dev/conduit/metrics"

// Provider names a metrics backend.
type Provider string

const (
	// PrometheusProvider exposes metrics for scraping through Handler.
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics periodically.
	StdoutProvider Provider = "stdout"
)

var (
	// ErrInvalidConfig is returned by New for inconsistent options.
	ErrInvalidConfig = errors.New("invalid metrics configuration")

	// ErrNoHandler is returned by Handler for providers without scrape output.
	ErrNoHandler = errors.New("metrics handler requires the prometheus provider")
)

// DefaultDurationBuckets are the request duration histogram boundaries, in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// DefaultSizeBuckets are the response size histogram boundaries, in bytes.
var DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}

// Recorder records request metrics. It is safe for concurrent use.
type Recorder struct {
	provider        Provider
	providerSet     int
	serviceName     string
	serviceVersion  string
	otlpEndpoint    string
	exportInterval  time.Duration
	durationBuckets []float64
	sizeBuckets     []float64
	registerGlobal  bool

	meterProvider metric.MeterProvider
	sdkProvider   *sdkmetric.MeterProvider
	registry      *promclient.Registry
	handler       http.Handler

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	responseSize    metric.Int64Histogram
	errorCount      metric.Int64Counter

	baseAttrs []attribute.KeyValue

	customMu       sync.Mutex
	customCounters map[string]metric.Int64Counter

	shutdownOnce sync.Once
}

// New creates a Recorder. The default provider is Prometheus.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		serviceName:     "conduit",
		serviceVersion:  "dev",
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		sizeBuckets:     DefaultSizeBuckets,
		customCounters:  make(map[string]metric.Int64Counter),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.providerSet > 1 {
		return nil, fmt.Errorf("%w: only one of WithPrometheus, WithOTLP, WithStdout or WithMeterProvider may be used", ErrInvalidConfig)
	}
	if r.serviceName == "" {
		return nil, fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfig)
	}

	if err := r.initProvider(); err != nil {
		return nil, err
	}
	if r.registerGlobal {
		otel.SetMeterProvider(r.meterProvider)
	}

	r.baseAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}
	if err := r.initInstruments(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}
	return r
}

func (r *Recorder) initProvider() error {
	if r.meterProvider != nil {
		return nil
	}

	var reader sdkmetric.Reader
	switch r.provider {
	case PrometheusProvider:
		r.registry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		reader = exporter
		r.handler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	case OTLPProvider:
		exporter, err := otlpmetrichttp.New(context.Background(), otlpOptions(r.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, r.provider)
	}

	r.sdkProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r.meterProvider = r.sdkProvider
	return nil
}

// otlpOptions turns an endpoint URL into exporter options. Plain http
// endpoints are exported without TLS.
func otlpOptions(endpoint string) []otlpmetrichttp.Option {
	if endpoint == "" {
		return nil
	}
	var opts []otlpmetrichttp.Option
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = rest
		opts = append(opts, otlpmetrichttp.WithInsecure())
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return append(opts, otlpmetrichttp.WithEndpoint(endpoint))
}

func (r *Recorder) initInstruments() error {
	meter := r.meterProvider.Meter(meterName)

	var err error
	if r.requestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	if r.requestCount, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}
	if r.activeRequests, err = meter.Int64UpDownCounter(
		"http_requests_active",
		metric.WithDescription("Number of in-flight HTTP requests"),
	); err != nil {
		return fmt.Errorf("failed to create active requests gauge: %w", err)
	}
	if r.responseSize, err = meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("Size of HTTP response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	); err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}
	if r.errorCount, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP responses with status >= 400"),
	); err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}
	return nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.handler == nil {
		return nil, ErrNoHandler
	}
	return r.handler, nil
}

// Shutdown flushes and stops a provider the Recorder created. A provider
// passed through WithMeterProvider is left to its owner.
func (r *Recorder) Shutdown(ctx context.Context) error {
	var err error
	r.shutdownOnce.Do(func() {
		if r.sdkProvider != nil {
			err = r.sdkProvider.Shutdown(ctx)
		}
	})
	return err
}
