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

// Package bodylimit caps the size of request bodies.
//
// Requests announcing a larger Content-Length are rejected with 413 before
// the handler runs. Bodies without a length are cut off while reading: the
// read that crosses the limit fails with an error wrapping
// ErrBodyLimitExceeded and carrying status 413.
//
// Rejections are reported to the enclosing errorhandler, so the response is
// formatted like every other error.
package bodylimit

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/middleware/errorhandler"
	"rivaas.dev/conduit/pipeline"
)

// ErrBodyLimitExceeded is wrapped by every rejection.
var ErrBodyLimitExceeded = errors.New("request body size exceeds limit")

// DefaultLimit is 2MB.
const DefaultLimit int64 = 2 << 20

// Option configures the middleware.
type Option func(*config)

type config struct {
	limit     int64
	skipPaths map[string]bool
}

// WithLimit sets the maximum body size in bytes. It panics if size is not
// positive.
func WithLimit(size int64) Option {
	return func(c *config) {
		if size <= 0 {
			panic("body limit must be positive")
		}
		c.limit = size
	}
}

// WithSkipPaths disables the limit for exact paths, such as upload
// endpoints with their own checks.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = true
		}
	}
}

func tooLarge(limit int64) error {
	return apierrors.WithStatus(fmt.Errorf("%w: max %s", ErrBodyLimitExceeded, formatSize(limit)),
		http.StatusRequestEntityTooLarge)
}

// New returns the body limit middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := &config{limit: DefaultLimit, skipPaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if cfg.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > cfg.limit {
			err := tooLarge(cfg.limit)
			if !errorhandler.Report(r, err) {
				http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			}
			return
		}

		if r.Body != nil && r.Body != http.NoBody {
			r.Body = &limitedReader{ReadCloser: r.Body, limit: cfg.limit}
		}
		next.ServeHTTP(w, r)
	})
}

type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read returns io.EOF at exactly limit bytes and an error once a byte past
// the limit is seen.
func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read > lr.limit {
		return 0, tooLarge(lr.limit)
	}
	// One extra byte tells a body of exactly limit bytes from a larger one.
	if remaining := lr.limit - lr.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := lr.ReadCloser.Read(p)
	lr.read += int64(n)
	if lr.read > lr.limit {
		return n - int(lr.read-lr.limit), tooLarge(lr.limit)
	}
	return n, err
}

func formatSize(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
