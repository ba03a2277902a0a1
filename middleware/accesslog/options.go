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

package accesslog

import (
	"log/slog"
	"time"
)

// Option configures the access log middleware.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string

	// sampleRate: 1.0 logs everything, 0.1 logs one request in ten.
	sampleRate    float64
	errorsOnly    bool
	slowThreshold time.Duration
}

func defaultConfig() *config {
	return &config{
		logger:       slog.Default(),
		excludePaths: make(map[string]bool),
		sampleRate:   1.0,
	}
}

// WithLogger sets the logger access entries are written to.
// A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExcludePaths skips requests whose path equals one of paths.
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, path := range paths {
			c.excludePaths[path] = true
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.excludePrefixes = append(c.excludePrefixes, prefixes...)
	}
}

// WithSampleRate logs a deterministic fraction of successful requests,
// keyed by request ID. Errors and slow requests are always logged.
func WithSampleRate(rate float64) Option {
	return func(c *config) {
		c.sampleRate = max(0.0, min(rate, 1.0))
	}
}

// WithErrorsOnly logs only requests answered with status >= 400, plus slow ones.
func WithErrorsOnly() Option {
	return func(c *config) {
		c.errorsOnly = true
	}
}

// WithSlowThreshold marks requests taking at least threshold as slow and
// always logs them.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(c *config) {
		c.slowThreshold = threshold
	}
}
