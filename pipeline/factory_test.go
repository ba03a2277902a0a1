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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/container"
)

func serve(t *testing.T, mw Middleware) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	NewPipe(mw).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	return rec
}

func writeBody(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func TestFactory_Prepare(t *testing.T) {
	t.Parallel()

	c := container.New().Set("svc", http.HandlerFunc(writeBody("from-container")))
	f := NewFactory(c)

	tests := []struct {
		name     string
		spec     any
		wantBody string
	}{
		{name: "middleware", spec: Handler(http.HandlerFunc(writeBody("mw"))), wantBody: "mw"},
		{name: "http.Handler", spec: http.HandlerFunc(writeBody("handler")), wantBody: "handler"},
		{name: "plain handler func", spec: writeBody("func"), wantBody: "func"},
		{
			name: "decorator",
			spec: func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = io.WriteString(w, "decorated;")
					next.ServeHTTP(w, r)
				})
			},
			wantBody: "decorated;Cannot GET /",
		},
		{
			name: "double pass",
			spec: func(w http.ResponseWriter, _ *http.Request, _ http.Handler) {
				_, _ = io.WriteString(w, "double")
			},
			wantBody: "double",
		},
		{name: "service name", spec: "svc", wantBody: "from-container"},
		{
			name: "slice becomes pipeline",
			spec: []any{
				func(w http.ResponseWriter, r *http.Request, next http.Handler) {
					_, _ = io.WriteString(w, "first;")
					next.ServeHTTP(w, r)
				},
				"svc",
			},
			wantBody: "first;from-container",
		},
		{name: "string slice", spec: []string{"svc"}, wantBody: "from-container"},
		{name: "middleware slice", spec: []Middleware{Handler(http.HandlerFunc(writeBody("listed")))}, wantBody: "listed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw, err := f.Prepare(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, serve(t, mw).Body.String())
		})
	}
}

func TestFactory_PrepareKeepsPipeAsMiddleware(t *testing.T) {
	t.Parallel()

	p := NewPipe()
	mw, err := NewFactory(nil).Prepare(p)
	require.NoError(t, err)
	assert.Same(t, p, mw)
}

func TestFactory_PrepareInvalid(t *testing.T) {
	t.Parallel()

	f := NewFactory(nil)

	tests := []struct {
		name string
		spec any
		want error
	}{
		{name: "nil", spec: nil, want: ErrInvalidMiddleware},
		{name: "empty string", spec: "", want: ErrInvalidMiddleware},
		{name: "int", spec: 42, want: ErrInvalidMiddleware},
		{name: "empty slice", spec: []any{}, want: ErrEmptyPipeline},
		{name: "slice with invalid entry", spec: []any{"ok", 3.14}, want: ErrInvalidMiddleware},
		{name: "empty middleware slice", spec: []Middleware{}, want: ErrEmptyPipeline},
		{name: "middleware slice with nil", spec: []Middleware{Handler(http.NotFoundHandler()), nil}, want: ErrInvalidMiddleware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			require.NotPanics(t, func() { _, err = f.Prepare(tt.spec) })
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLazyMiddleware_ResolvesAtRequestTime(t *testing.T) {
	t.Parallel()

	c := container.New()
	f := NewFactory(c)

	mw, err := f.Prepare("late")
	require.NoError(t, err)

	lazy, ok := mw.(*LazyMiddleware)
	require.True(t, ok)
	assert.Equal(t, "late", lazy.Name())

	// Registered after preparation.
	c.Set("late", http.HandlerFunc(writeBody("late-bound")))
	assert.Equal(t, "late-bound", serve(t, mw).Body.String())
}

func TestLazyMiddleware_PanicsWithResolutionError(t *testing.T) {
	t.Parallel()

	c := container.New().Set("bogus", 12)
	f := NewFactory(c)

	tests := []struct {
		name    string
		service string
		want    error
	}{
		{name: "missing", service: "missing", want: ErrMissingDependency},
		{name: "invalid", service: "bogus", want: ErrInvalidMiddleware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw, err := f.Lazy(tt.service)
			require.NoError(t, err)

			defer func() {
				rec := recover()
				require.NotNil(t, rec)
				err, ok := rec.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}()
			serve(t, mw)
		})
	}
}

func TestMiddlewareContainer_InvalidServiceError(t *testing.T) {
	t.Parallel()

	mc := NewMiddlewareContainer(container.New().Set("bad", struct{}{}))
	_, err := mc.Get("bad")

	var invalid *InvalidMiddlewareError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "bad", invalid.Service)
	assert.Contains(t, err.Error(), `service "bad"`)
}
