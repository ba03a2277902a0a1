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
	"net/http"
	"strings"

	"rivaas.dev/conduit/middleware"
	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	excludePaths    map[string]bool
	excludePrefixes []string
}

// WithExcludePaths skips requests whose path equals one of paths.
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.excludePrefixes = append(c.excludePrefixes, prefixes...)
	}
}

// Middleware records request metrics. It must run before the routing
// middleware to observe the matched route.
func Middleware(recorder *Recorder, opts ...MiddlewareOption) pipeline.Middleware {
	cfg := &middlewareConfig{excludePaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if cfg.excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		m := recorder.Begin(ctx, r.Method)
		rw := middleware.Wrap(w)
		r, tracker := router.Track(r)

		defer func() {
			recorder.Finish(ctx, m, rw.StatusCode(), rw.Size(), tracker.RouteName())
		}()
		next.ServeHTTP(rw, r)
	})
}

func (c *middlewareConfig) excluded(path string) bool {
	if c.excludePaths[path] {
		return true
	}
	for _, prefix := range c.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
