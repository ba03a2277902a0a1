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

// Package cors answers Cross-Origin Resource Sharing requests.
//
// Requests without an Origin header, or from an origin that is not allowed,
// pass through untouched. Preflight requests from allowed origins are
// answered with 204 and never reach the rest of the pipeline.
//
//	app.Pipe(cors.New(cors.WithAllowedOrigins("https://example.com")))
package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"rivaas.dev/conduit/pipeline"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	allowedOrigins   []string
	allowedMethods   []string
	allowedHeaders   []string
	exposedHeaders   []string
	allowCredentials bool
	maxAge           int
	allowAllOrigins  bool
	allowOriginFunc  func(origin string) bool
}

// No origin is allowed by default.
func defaultConfig() *config {
	return &config{
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// WithAllowedOrigins sets the exact origins allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		c.allowedOrigins = origins
	}
}

// WithAllowAllOrigins answers every origin with "*".
func WithAllowAllOrigins(allow bool) Option {
	return func(c *config) {
		c.allowAllOrigins = allow
	}
}

// WithAllowOriginFunc validates origins dynamically. It takes precedence over
// WithAllowedOrigins.
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(c *config) {
		c.allowOriginFunc = fn
	}
}

// WithAllowedMethods sets Access-Control-Allow-Methods for preflights.
func WithAllowedMethods(methods ...string) Option {
	return func(c *config) {
		c.allowedMethods = methods
	}
}

// WithAllowedHeaders sets Access-Control-Allow-Headers for preflights.
func WithAllowedHeaders(headers ...string) Option {
	return func(c *config) {
		c.allowedHeaders = headers
	}
}

// WithExposedHeaders sets Access-Control-Expose-Headers.
func WithExposedHeaders(headers ...string) Option {
	return func(c *config) {
		c.exposedHeaders = headers
	}
}

// WithAllowCredentials sets Access-Control-Allow-Credentials. With
// credentials the wildcard origin is replaced by the request origin.
func WithAllowCredentials(allow bool) Option {
	return func(c *config) {
		c.allowCredentials = allow
	}
}

// WithMaxAge sets how long, in seconds, preflight results may be cached.
func WithMaxAge(seconds int) Option {
	return func(c *config) {
		c.maxAge = seconds
	}
}

func (c *config) allowedOrigin(origin string) string {
	switch {
	case c.allowAllOrigins:
		if c.allowCredentials {
			return origin
		}
		return "*"
	case c.allowOriginFunc != nil:
		if c.allowOriginFunc(origin) {
			return origin
		}
	case slices.Contains(c.allowedOrigins, origin):
		return origin
	}
	return ""
}

// New returns the CORS middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	methods := strings.Join(cfg.allowedMethods, ", ")
	headers := strings.Join(cfg.allowedHeaders, ", ")
	exposed := strings.Join(cfg.exposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.maxAge)

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")

		allowed := cfg.allowedOrigin(origin)
		if allowed == "" {
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Origin", allowed)
		if cfg.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
