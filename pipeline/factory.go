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

	"rivaas.dev/conduit/container"
)

// Factory normalizes middleware specifications into [Middleware].
//
// Service names are resolved through a [MiddlewareContainer] at request
// time, so a pipeline can be declared before its services are registered.
type Factory struct {
	container *MiddlewareContainer
}

// NewFactory creates a Factory resolving service names from c.
// c may be nil, in which case every service name is reported missing when
// the middleware runs.
func NewFactory(c container.Container) *Factory {
	return &Factory{container: NewMiddlewareContainer(c)}
}

// Container returns the middleware container used for lazy resolution.
func (f *Factory) Container() *MiddlewareContainer {
	return f.container
}

// Prepare converts spec into a [Middleware]. See the package documentation
// for the accepted forms. Invalid specifications yield an
// [*InvalidMiddlewareError].
func (f *Factory) Prepare(spec any) (Middleware, error) {
	switch v := spec.(type) {
	case nil:
		return nil, &InvalidMiddlewareError{Value: spec}
	case Middleware:
		return v, nil
	case http.Handler:
		return Handler(v), nil
	case func(http.ResponseWriter, *http.Request):
		return Handler(http.HandlerFunc(v)), nil
	case func(http.Handler) http.Handler:
		return Decorator(v), nil
	case func(http.ResponseWriter, *http.Request, http.Handler):
		return DoublePass(v), nil
	case string:
		return f.Lazy(v)
	case []string:
		specs := make([]any, len(v))
		for i, s := range v {
			specs[i] = s
		}
		return f.Pipeline(specs...)
	case []Middleware:
		specs := make([]any, len(v))
		for i, mw := range v {
			specs[i] = mw
		}
		return f.Pipeline(specs...)
	case []any:
		return f.Pipeline(v...)
	default:
		return nil, &InvalidMiddlewareError{Value: spec}
	}
}

// MustPrepare is like Prepare but panics on error.
func (f *Factory) MustPrepare(spec any) Middleware {
	mw, err := f.Prepare(spec)
	if err != nil {
		panic(err)
	}

	return mw
}

// Pipeline prepares each spec and pipes them, in order, into a new [Pipe].
func (f *Factory) Pipeline(specs ...any) (*Pipe, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyPipeline
	}

	p := NewPipe()
	for i, spec := range specs {
		mw, err := f.Prepare(spec)
		if err != nil {
			return nil, fmt.Errorf("pipeline entry %d: %w", i, err)
		}
		p.Pipe(mw)
	}

	return p, nil
}

// Lazy returns middleware that resolves the named service when it runs.
func (f *Factory) Lazy(name string) (Middleware, error) {
	if name == "" {
		return nil, &InvalidMiddlewareError{Value: name}
	}

	return &LazyMiddleware{name: name, container: f.container}, nil
}

// LazyMiddleware resolves a service from the container on every request and
// processes the request with it. Containers that share instances make the
// repeated lookup cheap.
//
// A resolution failure is raised as a panic carrying the error, which the
// error handler middleware turns into an error response.
type LazyMiddleware struct {
	name      string
	container *MiddlewareContainer
}

// Name returns the service name.
func (m *LazyMiddleware) Name() string {
	return m.name
}

// Process implements [Middleware].
func (m *LazyMiddleware) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	mw, err := m.container.Get(m.name)
	if err != nil {
		panic(err)
	}
	mw.Process(w, r, next)
}

// MiddlewareContainer resolves service names to [Middleware].
type MiddlewareContainer struct {
	container container.Container
}

// NewMiddlewareContainer wraps c; c may be nil.
func NewMiddlewareContainer(c container.Container) *MiddlewareContainer {
	return &MiddlewareContainer{container: c}
}

// Has reports whether name can be resolved.
func (m *MiddlewareContainer) Has(name string) bool {
	return m.container != nil && m.container.Has(name)
}

// Get resolves name and normalizes the service into [Middleware].
func (m *MiddlewareContainer) Get(name string) (Middleware, error) {
	if !m.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrMissingDependency, name)
	}

	service, err := m.container.Get(name)
	if err != nil {
		return nil, fmt.Errorf("resolving middleware %q: %w", name, err)
	}

	switch v := service.(type) {
	case Middleware:
		return v, nil
	case http.Handler:
		return Handler(v), nil
	case func(http.ResponseWriter, *http.Request):
		return Handler(http.HandlerFunc(v)), nil
	case func(http.Handler) http.Handler:
		return Decorator(v), nil
	case func(http.ResponseWriter, *http.Request, http.Handler):
		return DoublePass(v), nil
	default:
		return nil, &InvalidMiddlewareError{Service: name, Value: service}
	}
}
