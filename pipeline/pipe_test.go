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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record returns middleware that appends name to trace before and after delegating.
func record(trace *[]string, name string) Middleware {
	return MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		*trace = append(*trace, name+">")
		next.ServeHTTP(w, r)
		*trace = append(*trace, "<"+name)
	})
}

func TestPipe_RunsInOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	p := NewPipe(record(&trace, "a"), record(&trace, "b"))
	p.Pipe(Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		trace = append(trace, "handler")
		_, _ = io.WriteString(w, "done")
	})))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a>", "b>", "handler", "<b", "<a"}, trace)
	assert.Equal(t, "done", rec.Body.String())
}

func TestPipe_FallbackWhenExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pipe     *Pipe
		wantCode int
		wantBody string
	}{
		{
			name:     "empty pipe uses default 404",
			pipe:     NewPipe(),
			wantCode: http.StatusNotFound,
			wantBody: "Cannot GET /missing?q=1",
		},
		{
			name: "custom fallback",
			pipe: NewPipe().WithFallback(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})),
			wantCode: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tt.pipe.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing?q=1", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestPipe_AsMiddlewareDelegatesToOuterNext(t *testing.T) {
	t.Parallel()

	var trace []string
	inner := NewPipe(record(&trace, "inner"))
	outer := NewPipe(record(&trace, "outer"), inner, record(&trace, "after"))

	rec := httptest.NewRecorder()
	outer.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer>", "inner>", "after>", "<after", "<inner", "<outer"}, trace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPipe_ShortCircuit(t *testing.T) {
	t.Parallel()

	called := false
	p := NewPipe(
		MiddlewareFunc(func(w http.ResponseWriter, _ *http.Request, _ http.Handler) {
			w.WriteHeader(http.StatusUnauthorized)
		}),
		Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })),
	)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestPipe_NextCanBeInvokedTwice(t *testing.T) {
	t.Parallel()

	calls := 0
	p := NewPipe(
		MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			next.ServeHTTP(httptest.NewRecorder(), r)
			next.ServeHTTP(w, r)
		}),
		Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusAccepted)
		})),
	)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPipe_PanicsOnNil(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPipe(nil) })
}

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prefix    string
		path      string
		wantHit   bool
		wantInner string
	}{
		{name: "exact", prefix: "/api", path: "/api", wantHit: true, wantInner: "/"},
		{name: "below", prefix: "/api", path: "/api/users", wantHit: true, wantInner: "/users"},
		{name: "case insensitive", prefix: "/api", path: "/API/users", wantHit: true, wantInner: "/users"},
		{name: "trailing slash prefix", prefix: "/api/", path: "/api/users", wantHit: true, wantInner: "/users"},
		{name: "segment boundary", prefix: "/api", path: "/apiary", wantHit: false},
		{name: "outside", prefix: "/api", path: "/web", wantHit: false},
		{name: "root matches all", prefix: "/", path: "/anything", wantHit: true, wantInner: "/anything"},
		{name: "prefix without slash", prefix: "admin", path: "/admin/x", wantHit: true, wantInner: "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var innerPath, nextPath string
			hit := false
			mw := Path(tt.prefix, MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
				hit = true
				innerPath = r.URL.Path
				next.ServeHTTP(w, r)
			}))

			next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				nextPath = r.URL.Path
			})
			mw.Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil), next)

			assert.Equal(t, tt.wantHit, hit)
			if tt.wantHit {
				assert.Equal(t, tt.wantInner, innerPath)
			}
			assert.Equal(t, tt.path, nextPath, "next must see the original path")
		})
	}
}

func TestQueue_StablePriorityOrder(t *testing.T) {
	t.Parallel()

	var q Queue[string]
	q.Push("default-1", DefaultPriority)
	q.Push("high", 100)
	q.Push("low", -10)
	q.Push("default-2", DefaultPriority)
	q.Push("high-2", 100)

	assert.Equal(t, []string{"high", "high-2", "default-1", "default-2", "low"}, q.Values())
	assert.Equal(t, 5, q.Len())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "high", first)
	assert.Equal(t, 4, q.Len())

	var empty Queue[int]
	_, ok = empty.Pop()
	assert.False(t, ok)
}

func TestDecoratorAndDoublePass(t *testing.T) {
	t.Parallel()

	decorator := Decorator(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Decorated", "yes")
			next.ServeHTTP(w, r)
		})
	})
	doublePass := DoublePass(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		w.Header().Set("X-Double", "yes")
		next.ServeHTTP(w, r)
	})

	p := NewPipe(decorator, doublePass, Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "yes", rec.Header().Get("X-Decorated"))
	assert.Equal(t, "yes", rec.Header().Get("X-Double"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ok"))
}
