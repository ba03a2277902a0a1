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
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	excludePaths    map[string]bool
	excludePrefixes []string
}

// WithExcludePaths leaves requests whose path equals one of paths untraced.
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes leaves requests whose path starts with one of
// prefixes untraced.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.excludePrefixes = append(c.excludePrefixes, prefixes...)
	}
}

// Middleware traces requests. It must run before the routing middleware for
// spans to carry the route name.
func Middleware(t *Tracer, opts ...MiddlewareOption) pipeline.Middleware {
	cfg := &middlewareConfig{excludePaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	filter := func(r *http.Request) bool {
		if cfg.excludePaths[r.URL.Path] {
			return false
		}
		for _, prefix := range cfg.excludePrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				return false
			}
		}
		return true
	}

	handler := otelhttp.NewHandler(http.HandlerFunc(serveNext), "http.request",
		otelhttp.WithTracerProvider(t.tracerProvider),
		otelhttp.WithPropagators(t.propagator),
		otelhttp.WithFilter(filter),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
	)

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), nextKey{}, next)))
	})
}

type nextKey struct{}

// serveNext runs the pipeline remainder inside the server span and renames
// the span after the matched route.
func serveNext(w http.ResponseWriter, r *http.Request) {
	next, _ := r.Context().Value(nextKey{}).(http.Handler)
	r, tracker := router.Track(r)
	next.ServeHTTP(w, r)

	if name := tracker.RouteName(); name != "" {
		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Method + " " + name)
		span.SetAttributes(semconv.HTTPRouteKey.String(name))
	}
}
