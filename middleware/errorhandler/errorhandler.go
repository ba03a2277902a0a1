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

package errorhandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/conduit/middleware"
	"rivaas.dev/conduit/pipeline"
)

const defaultStackSize = 4 << 10

// PanicError carries a recovered panic value that was not an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Listener is notified of every error the handler catches, with the status
// the response was (or will be) sent with.
type Listener func(err error, r *http.Request, status int)

// Option configures an ErrorHandler.
type Option func(*ErrorHandler)

// WithGenerator sets the response generator. The default generator writes
// plain text without debug output.
func WithGenerator(g *ResponseGenerator) Option {
	return func(h *ErrorHandler) {
		h.generator = g
	}
}

// WithListener attaches listeners at construction time.
func WithListener(listeners ...Listener) Option {
	return func(h *ErrorHandler) {
		h.listeners = append(h.listeners, listeners...)
	}
}

// WithStackSize bounds the stack captured for panics. Zero keeps the full stack.
func WithStackSize(size int) Option {
	return func(h *ErrorHandler) {
		h.stackSize = size
	}
}

// ErrorHandler is a pipeline.Middleware that recovers panics, collects
// reported errors and generates error responses.
type ErrorHandler struct {
	generator *ResponseGenerator
	stackSize int

	mu        sync.RWMutex
	listeners []Listener
}

var _ pipeline.Middleware = (*ErrorHandler)(nil)

// New creates an ErrorHandler.
func New(opts ...Option) *ErrorHandler {
	h := &ErrorHandler{stackSize: defaultStackSize}
	for _, opt := range opts {
		opt(h)
	}
	if h.generator == nil {
		h.generator = NewResponseGenerator()
	}
	return h
}

// Generator returns the response generator.
func (h *ErrorHandler) Generator() *ResponseGenerator {
	return h.generator
}

// AttachListener adds a listener.
func (h *ErrorHandler) AttachListener(l Listener) {
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

// Wrap returns h as an http.Handler around next.
func (h *ErrorHandler) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Process(w, r, next)
	})
}

// Process implements pipeline.Middleware.
func (h *ErrorHandler) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	rw := middleware.Wrap(w)
	s := &sink{}
	r = r.WithContext(context.WithValue(r.Context(), sinkKey{}, s))

	err := h.run(rw, r, next)
	if err == nil {
		err = s.get()
	}
	if err == nil {
		return
	}

	status := rw.StatusCode()
	if !rw.Written() {
		status = h.generator.Status(err, status)
	}
	h.notify(err, r, status)

	if !rw.Written() {
		h.generator.Generate(rw, r, err)
	}
}

func (h *ErrorHandler) run(w http.ResponseWriter, r *http.Request, next http.Handler) (err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler { //nolint:errorlint // sentinel identity
			panic(v)
		}

		stack := debug.Stack()
		if h.stackSize > 0 && len(stack) > h.stackSize {
			stack = stack[:h.stackSize]
		}
		if e, ok := v.(error); ok {
			err = e
		} else {
			err = &PanicError{Value: v, Stack: stack}
		}
		markSpan(r.Context(), v)
	}()

	next.ServeHTTP(w, r)
	return nil
}

func (h *ErrorHandler) notify(err error, r *http.Request, status int) {
	h.mu.RLock()
	listeners := append([]Listener(nil), h.listeners...)
	h.mu.RUnlock()

	for _, l := range listeners {
		l(err, r, status)
	}
}

// markSpan flags the active span of a request that panicked.
func markSpan(ctx context.Context, v any) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}
	span.SetStatus(codes.Error, "panic recovered")
	span.SetAttributes(
		attribute.Bool("exception.escaped", true),
		attribute.String("exception.type", fmt.Sprintf("%T", v)),
		attribute.String("exception.message", fmt.Sprintf("%v", v)),
	)
	if err, ok := v.(error); ok {
		span.RecordError(err)
	}
}

type sinkKey struct{}

type sink struct {
	mu  sync.Mutex
	err error
}

func (s *sink) set(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *sink) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Report hands err to the ErrorHandler serving r. The first error reported
// wins. It returns false when no ErrorHandler is installed.
func Report(r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	s, ok := r.Context().Value(sinkKey{}).(*sink)
	if !ok {
		return false
	}
	s.set(err)
	return true
}

// HandlerFunc is a handler that may fail.
//
// A returned error is reported to the enclosing ErrorHandler. Without one, a
// plain 500 response is written, provided nothing was written yet.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := middleware.Wrap(w)
	err := f(rw, r)
	if err == nil || Report(r, err) || rw.Written() {
		return
	}
	writePlain(rw, http.StatusInternalServerError, defaultMessage)
}

// IsPanic reports whether err came from a recovered non-error panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
