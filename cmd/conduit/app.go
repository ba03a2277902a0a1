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

package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"

	"rivaas.dev/conduit/app"
	"rivaas.dev/conduit/config"
	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/logging"
	"rivaas.dev/conduit/metrics"
	"rivaas.dev/conduit/middleware/accesslog"
	"rivaas.dev/conduit/middleware/requestid"
	"rivaas.dev/conduit/template"
	"rivaas.dev/conduit/tracing"
)

//go:embed templates
var templates embed.FS

// newRenderer serves the "error" and "layout" namespaces from the embedded
// templates.
func newRenderer() (*template.HTMLRenderer, error) {
	r := template.NewHTMLRenderer()
	for _, ns := range []string{"error", "layout"} {
		sub, err := fs.Sub(templates, "templates/"+ns)
		if err != nil {
			return nil, err
		}
		if err := r.AddFS(sub, ns); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newLogger(raw *config.Config, cfg *app.Config, w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(raw.StringOr("logging.level", "info"))
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithHandlerType(logging.HandlerType(raw.StringOr("logging.format", string(logging.JSONHandler)))),
		logging.WithLevel(level),
		logging.WithOutput(w),
		logging.WithServiceName(cfg.Service.Name),
		logging.WithServiceVersion(cfg.Service.Version),
		logging.WithEnvironment(cfg.Service.Environment),
	)
}

func newMetrics(raw *config.Config, name string) (*metrics.Recorder, error) {
	opts := []metrics.Option{metrics.WithServiceName(name)}
	switch p := raw.StringOr("metrics.provider", ""); p {
	case "":
		return nil, nil
	case string(metrics.PrometheusProvider):
		opts = append(opts, metrics.WithPrometheus())
	case string(metrics.OTLPProvider):
		opts = append(opts, metrics.WithOTLP(raw.String("metrics.endpoint")))
	case string(metrics.StdoutProvider):
		opts = append(opts, metrics.WithStdout())
	default:
		return nil, fmt.Errorf("unknown metrics provider %q", p)
	}
	return metrics.New(opts...)
}

func newTracer(ctx context.Context, raw *config.Config, name string) (*tracing.Tracer, error) {
	opts := []tracing.Option{tracing.WithServiceName(name)}
	switch p := raw.StringOr("tracing.provider", ""); p {
	case "":
		return nil, nil
	case string(tracing.StdoutProvider):
		opts = append(opts, tracing.WithStdout())
	case string(tracing.OTLPProvider):
		opts = append(opts, tracing.WithOTLP(raw.String("tracing.endpoint")))
	case string(tracing.OTLPGRPCProvider):
		opts = append(opts, tracing.WithOTLPGRPC(raw.String("tracing.endpoint"), raw.Bool("tracing.insecure")))
	case string(tracing.NoopProvider):
		opts = append(opts, tracing.WithNoop())
	default:
		return nil, fmt.Errorf("unknown tracing provider %q", p)
	}
	if rate := raw.Float64("tracing.sample_rate"); rate > 0 {
		opts = append(opts, tracing.WithSampleRate(rate))
	}
	return tracing.New(ctx, opts...)
}

// buildApp decodes raw into an application. Logs go to logs, the startup
// banner to banner.
func buildApp(ctx context.Context, raw *config.Config, banner, logs io.Writer) (*app.App, error) {
	cfg, err := app.DecodeConfig(raw)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(raw, cfg, logs)
	if err != nil {
		return nil, err
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	name := cfg.Service.Name
	if name == "" {
		name = app.DefaultServiceName
	}

	opts := []app.Option{
		app.WithLogger(logger.Logger()),
		app.WithContainer(services(logger)),
		app.WithRenderer(renderer),
		app.WithErrorFormatters(apierrors.NewRFC9457(""), apierrors.NewJSONAPI(), apierrors.NewSimple()),
		app.WithHealthEndpoints(),
		app.WithBannerOutput(banner),
	}
	switch format := raw.StringOr("request_id.format", "uuid"); format {
	case "uuid":
	case "ulid":
		opts = append(opts, app.WithRequestID(requestid.WithULID()))
	default:
		return nil, fmt.Errorf("unknown request_id.format %q", format)
	}
	if raw.BoolOr("access_log.enabled", true) {
		opts = append(opts, app.WithAccessLog(accesslog.WithExcludePaths("/healthz", "/readyz", app.DefaultMetricsPath)))
	}

	recorder, err := newMetrics(raw, name)
	if err != nil {
		return nil, err
	}
	if recorder != nil {
		opts = append(opts, app.WithMetrics(recorder))
	}
	tracer, err := newTracer(ctx, raw, name)
	if err != nil {
		return nil, err
	}
	if tracer != nil {
		opts = append(opts, app.WithTracing(tracer))
	}

	return app.NewFromConfig(cfg, opts...)
}
