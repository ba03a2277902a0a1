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
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/middleware/errorhandler"
	"rivaas.dev/conduit/pipeline"
)

// CheckFunc reports whether a dependency is healthy.
type CheckFunc func(ctx context.Context) error

// HealthOption configures the health endpoints.
type HealthOption func(*healthSettings)

type healthSettings struct {
	prefix      string
	healthzPath string
	readyzPath  string
	liveness    map[string]CheckFunc
	readiness   map[string]CheckFunc
	timeout     time.Duration
}

// WithHealthEndpoints adds GET /healthz (liveness) and GET /readyz
// (readiness) routes named "conduit.healthz" and "conduit.readyz".
func WithHealthEndpoints(opts ...HealthOption) Option {
	return func(s *settings) {
		h := &healthSettings{
			healthzPath: "/healthz",
			readyzPath:  "/readyz",
			liveness:    make(map[string]CheckFunc),
			readiness:   make(map[string]CheckFunc),
			timeout:     time.Second,
		}
		for _, opt := range opts {
			opt(h)
		}
		s.health = h
	}
}

// WithHealthPrefix mounts the endpoints under prefix, e.g. "/_system".
func WithHealthPrefix(prefix string) HealthOption {
	return func(h *healthSettings) {
		h.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithLivenessCheck adds a check to /healthz.
func WithLivenessCheck(name string, fn CheckFunc) HealthOption {
	return func(h *healthSettings) {
		h.liveness[name] = fn
	}
}

// WithReadinessCheck adds a check to /readyz.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return func(h *healthSettings) {
		h.readiness[name] = fn
	}
}

// WithHealthTimeout bounds every check. Default: one second.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(h *healthSettings) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func (a *App) registerHealthEndpoints(h *healthSettings) error {
	if _, err := a.routes.Get(h.prefix+h.healthzPath, pipeline.Handler(healthHandler(h.liveness, h.timeout, "Service Not Healthy")), "conduit.healthz"); err != nil {
		return err
	}
	_, err := a.routes.Get(h.prefix+h.readyzPath, pipeline.Handler(healthHandler(h.readiness, h.timeout, "Service Not Ready")), "conduit.readyz")
	return err
}

func healthHandler(checks map[string]CheckFunc, timeout time.Duration, message string) errorhandler.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Cache-Control", "no-store")

		if failures := runChecks(r.Context(), checks, timeout); len(failures) > 0 {
			var errs []error
			for _, name := range slices.Sorted(maps.Keys(failures)) {
				errs = append(errs, fmt.Errorf("%s: %s", name, failures[name]))
			}
			return apierrors.WithStatus(fmt.Errorf("%s: %w", message, errors.Join(errs...)), http.StatusServiceUnavailable)
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
		return nil
	}
}

// runChecks runs every check concurrently, each under its own timeout, and
// returns the failures by name.
func runChecks(ctx context.Context, checks map[string]CheckFunc, timeout time.Duration) map[string]string {
	type result struct {
		name string
		err  error
	}

	results := make(chan result, len(checks))
	for name, fn := range checks {
		go func() {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results <- result{name, fn(checkCtx)}
		}()
	}

	failures := make(map[string]string)
	for range len(checks) {
		r := <-results
		if r.err != nil {
			failures[r.name] = r.err.Error()
		}
	}
	return failures
}
