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

// Package accesslog writes one structured log entry per request.
//
//	app.Pipe(accesslog.New(
//		accesslog.WithLogger(logger),
//		accesslog.WithExcludePaths("/health", "/metrics"),
//		accesslog.WithSlowThreshold(500*time.Millisecond),
//	))
//
// Entries carry the matched route name when the routing middleware runs
// further down the pipeline.
package accesslog

import (
	"crypto/sha256"
	"encoding/binary"
	"net/http"
	"strings"
	"time"

	"rivaas.dev/conduit/middleware"
	"rivaas.dev/conduit/middleware/requestid"
	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

// Middleware logs requests.
type Middleware struct {
	cfg *config
}

var _ pipeline.Middleware = (*Middleware)(nil)

// New creates an access log middleware.
func New(opts ...Option) *Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Middleware{cfg: cfg}
}

func (m *Middleware) excluded(path string) bool {
	if m.cfg.excludePaths[path] {
		return true
	}
	for _, prefix := range m.cfg.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Process implements pipeline.Middleware.
func (m *Middleware) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path
	if m.cfg.logger == nil || m.excluded(path) {
		next.ServeHTTP(w, r)
		return
	}

	start := time.Now()
	rw := middleware.Wrap(w)
	r, tracker := router.Track(r)

	// The request ID is set by middlewares further down, so it is read from
	// the response header as well as the context.
	next.ServeHTTP(rw, r)

	duration := time.Since(start)
	status := rw.StatusCode()
	requestID := middleware.RequestID(r.Context())
	if requestID == "" {
		requestID = rw.Header().Get(requestid.DefaultHeader)
	}

	isError := status >= 400
	isSlow := m.cfg.slowThreshold > 0 && duration >= m.cfg.slowThreshold
	if !isError && !isSlow {
		if m.cfg.errorsOnly {
			return
		}
		if m.cfg.sampleRate < 1.0 && !sampleByHash(requestID, m.cfg.sampleRate) {
			return
		}
	}

	fields := []any{
		"method", r.Method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"bytes_sent", rw.Size(),
		"user_agent", r.UserAgent(),
		"remote_addr", r.RemoteAddr,
		"proto", r.Proto,
	}
	if name := tracker.RouteName(); name != "" {
		fields = append(fields, "route", name)
	}
	if requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if isSlow {
		fields = append(fields, "slow", true)
	}

	logger := m.cfg.logger
	switch {
	case status >= 500:
		logger.Error("access", fields...)
	case isError, isSlow:
		logger.Warn("access", fields...)
	default:
		logger.Info("access", fields...)
	}
}

// sampleByHash makes the same sampling decision for the same ID on every
// replica. Requests without an ID are always logged.
func sampleByHash(id string, rate float64) bool {
	if id == "" {
		return true
	}
	switch {
	case rate >= 1:
		return true
	case rate <= 0:
		return false
	}
	h := sha256.Sum256([]byte(id))
	// The top 53 bits and rate*2^53 are both exact in a float64.
	return float64(binary.BigEndian.Uint64(h[:8])>>11) < rate*(1<<53)
}
