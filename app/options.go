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

package app

import (
	"io"
	"log/slog"
	"os"
	"time"

	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/container"
	"rivaas.dev/conduit/metrics"
	"rivaas.dev/conduit/middleware/accesslog"
	"rivaas.dev/conduit/middleware/errorhandler"
	"rivaas.dev/conduit/middleware/requestid"
	"rivaas.dev/conduit/router"
	"rivaas.dev/conduit/template"
	"rivaas.dev/conduit/tracing"
)

// Default configuration values.
const (
	DefaultServiceName       = "conduit"
	DefaultVersion           = "1.0.0"
	DefaultEnvironment       = EnvironmentDevelopment
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMetricsPath       = "/metrics"

	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Option configures an App.
type Option func(*settings)

type settings struct {
	serviceName    string
	serviceVersion string
	environment    string
	debug          bool
	server         *serverConfig

	logger    *slog.Logger
	container container.Container
	router    router.Router
	renderer  template.Renderer

	formatters []apierrors.Formatter
	listeners  []errorhandler.Listener

	metrics     *metrics.Recorder
	metricsPath string
	tracer      *tracing.Tracer

	accessLog *[]accesslog.Option
	requestID []requestid.Option
	health    *healthSettings
	banner    io.Writer
}

type serverConfig struct {
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	readHeaderTimeout time.Duration
	maxHeaderBytes    int
	shutdownTimeout   time.Duration
}

func defaultSettings() *settings {
	return &settings{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultVersion,
		environment:    DefaultEnvironment,
		metricsPath:    DefaultMetricsPath,
		banner:         os.Stdout,
		server: &serverConfig{
			readTimeout:       DefaultReadTimeout,
			writeTimeout:      DefaultWriteTimeout,
			idleTimeout:       DefaultIdleTimeout,
			readHeaderTimeout: DefaultReadHeaderTimeout,
			maxHeaderBytes:    DefaultMaxHeaderBytes,
			shutdownTimeout:   DefaultShutdownTimeout,
		},
	}
}

// validate collects every problem so they can be fixed in one go.
func (s *settings) validate() error {
	var errs ValidationError

	if s.serviceName == "" {
		errs.Add(newEmptyFieldError("service.name"))
	}
	if s.serviceVersion == "" {
		errs.Add(newEmptyFieldError("service.version"))
	}
	if s.environment != EnvironmentDevelopment && s.environment != EnvironmentProduction {
		errs.Add(newInvalidEnumError("service.environment", s.environment,
			[]string{EnvironmentDevelopment, EnvironmentProduction}))
	}
	if s.metricsPath == "" || s.metricsPath[0] != '/' {
		errs.Add(newInvalidValueError("metrics.path", s.metricsPath, "must start with /"))
	}
	errs.Errors = append(errs.Errors, s.server.validate().Errors...)

	return errs.ToError()
}

func (sc *serverConfig) validate() *ValidationError {
	var errs ValidationError

	if sc.readTimeout <= 0 {
		errs.Add(newTimeoutError("server.read_timeout", sc.readTimeout))
	}
	if sc.writeTimeout <= 0 {
		errs.Add(newTimeoutError("server.write_timeout", sc.writeTimeout))
	}
	if sc.idleTimeout <= 0 {
		errs.Add(newTimeoutError("server.idle_timeout", sc.idleTimeout))
	}
	if sc.readHeaderTimeout <= 0 {
		errs.Add(newTimeoutError("server.read_header_timeout", sc.readHeaderTimeout))
	}
	if sc.shutdownTimeout <= 0 {
		errs.Add(newTimeoutError("server.shutdown_timeout", sc.shutdownTimeout))
	}
	if sc.maxHeaderBytes <= 0 {
		errs.Add(newInvalidValueError("server.max_header_bytes", sc.maxHeaderBytes, "must be positive"))
	}

	// The response cannot be written before the request is read.
	if sc.readTimeout > 0 && sc.writeTimeout > 0 && sc.readTimeout > sc.writeTimeout {
		errs.Add(newComparisonError("server.read_timeout", "server.write_timeout",
			sc.readTimeout, sc.writeTimeout,
			"read timeout should not exceed write timeout"))
	}

	return &errs
}

// WithServiceName sets the name shown in the banner and used by the
// logging, metrics and tracing defaults.
func WithServiceName(name string) Option {
	return func(s *settings) {
		s.serviceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(s *settings) {
		s.serviceVersion = version
	}
}

// WithEnvironment sets "development" or "production".
//
// Production strips ANSI colors from the banner and hides the route table.
func WithEnvironment(env string) Option {
	return func(s *settings) {
		s.environment = env
	}
}

// WithDebug makes error responses include the error and its stack trace.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.debug = debug
	}
}

// WithLogger sets the logger for lifecycle events and error listeners.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithContainer sets the container string middleware specs resolve from.
// Default: an empty container.Map.
func WithContainer(c container.Container) Option {
	return func(s *settings) {
		s.container = c
	}
}

// WithRouter sets the routing backend. Default: chirouter.
func WithRouter(rt router.Router) Option {
	return func(s *settings) {
		s.router = rt
	}
}

// WithRenderer enables HTML error and not-found pages rendered from the
// "error::error", "error::404" and "layout::default" templates.
func WithRenderer(r template.Renderer) Option {
	return func(s *settings) {
		s.renderer = r
	}
}

// WithErrorFormatters sets the machine formats error responses negotiate
// from the Accept header, e.g. apierrors.NewRFC9457("").
func WithErrorFormatters(formatters ...apierrors.Formatter) Option {
	return func(s *settings) {
		s.formatters = append(s.formatters, formatters...)
	}
}

// WithErrorListener adds a listener notified of every handled error.
func WithErrorListener(listeners ...errorhandler.Listener) Option {
	return func(s *settings) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithMetrics records request metrics with recorder. Prometheus recorders
// also get a scrape route at the metrics path.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *settings) {
		s.metrics = recorder
	}
}

// WithMetricsPath sets the scrape route path. Default: "/metrics".
func WithMetricsPath(path string) Option {
	return func(s *settings) {
		s.metricsPath = path
	}
}

// WithTracing traces requests with t.
func WithTracing(t *tracing.Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithAccessLog enables access logging. The app logger is used unless
// opts set another one.
func WithAccessLog(opts ...accesslog.Option) Option {
	return func(s *settings) {
		s.accessLog = &opts
	}
}

// WithRequestID configures the request ID middleware.
func WithRequestID(opts ...requestid.Option) Option {
	return func(s *settings) {
		s.requestID = append(s.requestID, opts...)
	}
}

// WithBannerOutput sets where Start prints the banner. Default: os.Stdout;
// io.Discard or nil turns it off.
func WithBannerOutput(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}
		s.banner = w
	}
}

// ServerOption configures the HTTP server.
type ServerOption func(*serverConfig)

// WithReadTimeout sets http.Server.ReadTimeout.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readTimeout = d
	}
}

// WithWriteTimeout sets http.Server.WriteTimeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.writeTimeout = d
	}
}

// WithIdleTimeout sets http.Server.IdleTimeout.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.idleTimeout = d
	}
}

// WithReadHeaderTimeout sets http.Server.ReadHeaderTimeout.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readHeaderTimeout = d
	}
}

// WithMaxHeaderBytes sets http.Server.MaxHeaderBytes.
func WithMaxHeaderBytes(n int) ServerOption {
	return func(sc *serverConfig) {
		sc.maxHeaderBytes = n
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.shutdownTimeout = d
	}
}

// WithServerConfig applies server options on top of the defaults.
//
//	app.New(
//		app.WithServerConfig(
//			app.WithReadTimeout(15*time.Second),
//			app.WithShutdownTimeout(5*time.Second),
//		),
//	)
func WithServerConfig(opts ...ServerOption) Option {
	return func(s *settings) {
		for _, opt := range opts {
			opt(s.server)
		}
	}
}
