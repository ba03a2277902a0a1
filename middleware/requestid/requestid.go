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

// Package requestid assigns every request an identifier for log correlation.
//
// The ID is taken from the X-Request-ID request header when clients may set
// it, generated as a UUID v7 (or a ULID with WithULID) otherwise, echoed in the response header and
// stored in the request context under middleware.RequestIDKey.
package requestid

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/conduit/middleware"
	"rivaas.dev/conduit/pipeline"
)

// DefaultHeader is the header carrying the request ID.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength bounds IDs accepted from clients.
const maxClientIDLength = 128

// Option configures the middleware.
type Option func(*config)

type config struct {
	header        string
	generator     func() string
	allowClientID bool
}

// WithHeader sets the header name for the request ID.
func WithHeader(name string) Option {
	return func(c *config) {
		c.header = name
	}
}

// WithGenerator replaces the UUID v7 generator.
func WithGenerator(generator func() string) Option {
	return func(c *config) {
		c.generator = generator
	}
}

// WithULID generates 26-character ULIDs instead of UUIDs. IDs minted in the
// same millisecond stay ordered.
func WithULID() Option {
	return WithGenerator(newULID)
}

// WithAllowClientID controls whether an ID sent by the client is kept.
// Default: true.
func WithAllowClientID(allow bool) Option {
	return func(c *config) {
		c.allowClientID = allow
	}
}

func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var (
	ulidEntropy   = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyMu sync.Mutex
)

func newULID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns the request ID middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := &config{
		header:        DefaultHeader,
		generator:     newV7,
		allowClientID: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		var id string
		if cfg.allowClientID {
			if v := r.Header.Get(cfg.header); len(v) <= maxClientIDLength {
				id = v
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		w.Header().Set(cfg.header, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Get returns the request ID of r, or "".
func Get(r *http.Request) string {
	return middleware.RequestID(r.Context())
}
