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

package pipeline

import (
	"fmt"
	"net/http"
	"sync"
)

// Pipe is an ordered sequence of middleware.
//
// A Pipe is itself [Middleware]: nested in another pipeline, it runs its own
// queue and then delegates to the outer next handler. Served directly as an
// [http.Handler], an exhausted queue falls through to the fallback handler.
//
// Pipe is safe for concurrent use; middleware piped while requests are in
// flight only affects requests that start afterwards.
type Pipe struct {
	mu       sync.RWMutex
	queue    []Middleware
	fallback http.Handler
}

// NewPipe creates a pipe holding mw.
func NewPipe(mw ...Middleware) *Pipe {
	p := &Pipe{}
	p.Pipe(mw...)

	return p
}

// Pipe appends middleware to the queue.
// It panics if any middleware is nil.
func (p *Pipe) Pipe(mw ...Middleware) *Pipe {
	for i, m := range mw {
		if m == nil {
			panic(fmt.Sprintf("pipeline: nil middleware at position %d passed to Pipe", i))
		}
	}

	p.mu.Lock()
	p.queue = append(p.queue, mw...)
	p.mu.Unlock()

	return p
}

// WithFallback sets the handler used by ServeHTTP once the queue is exhausted.
func (p *Pipe) WithFallback(h http.Handler) *Pipe {
	p.mu.Lock()
	p.fallback = h
	p.mu.Unlock()

	return p
}

// Len returns the number of piped middleware.
func (p *Pipe) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.queue)
}

// Process runs the queue and then delegates to next.
func (p *Pipe) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	queue, _ := p.snapshot()
	Next(queue, next).ServeHTTP(w, r)
}

// ServeHTTP runs the queue, falling back to the pipe's fallback handler
// (a plain-text 404 by default).
func (p *Pipe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	queue, fallback := p.snapshot()
	if fallback == nil {
		fallback = http.HandlerFunc(notFound)
	}
	Next(queue, fallback).ServeHTTP(w, r)
}

// snapshot returns the current queue; appends never touch the returned prefix.
func (p *Pipe) snapshot() ([]Middleware, http.Handler) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.queue[:len(p.queue):len(p.queue)], p.fallback
}

// Next returns a handler that runs queue in order and calls fallback once
// the queue is exhausted. Each middleware receives a handler continuing
// with the rest of the queue; calling it again re-runs that remainder.
func Next(queue []Middleware, fallback http.Handler) http.Handler {
	return &next{queue: queue, fallback: fallback}
}

type next struct {
	queue    []Middleware
	index    int
	fallback http.Handler
}

func (n *next) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if n.index >= len(n.queue) {
		n.fallback.ServeHTTP(w, r)
		return
	}

	n.queue[n.index].Process(w, r, &next{
		queue:    n.queue,
		index:    n.index + 1,
		fallback: n.fallback,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_, _ = fmt.Fprintf(w, "Cannot %s %s", r.Method, r.URL.String())
}
