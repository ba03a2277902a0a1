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

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/pipeline"
)

// routedPipe builds the standard routing pipeline over a static router.
func routedPipe(t *testing.T, setup func(c *Collector)) *pipeline.Pipe {
	t.Helper()

	rt := newStaticRouter()
	setup(NewCollector(rt))

	return pipeline.NewPipe(
		Middleware(rt),
		ImplicitHeadMiddleware(rt),
		ImplicitOptionsMiddleware(nil),
		MethodNotAllowedMiddleware(nil),
		DispatchMiddleware(),
	)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouteMiddleware_InjectsResult(t *testing.T) {
	t.Parallel()

	rt := newStaticRouter()
	route, err := NewCollector(rt).Get("/users/:id", text("x"), "user")
	require.NoError(t, err)

	var got *Result
	var pathValue, param string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ResultFromContext(r.Context())
		pathValue = r.PathValue("id")
		param = Param(r, "id")
	})

	Middleware(rt).Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil), next)

	require.NotNil(t, got)
	assert.Same(t, route, got.MatchedRoute())
	assert.Equal(t, "42", pathValue)
	assert.Equal(t, "42", param)
	assert.Same(t, rt, Middleware(rt).Router())
}

func TestRouteMiddleware_DelegatesOnFailure(t *testing.T) {
	t.Parallel()

	rt := newStaticRouter()
	called := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		res := ResultFromContext(r.Context())
		require.NotNil(t, res)
		assert.True(t, res.IsFailure())
	})

	Middleware(rt).Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil), next)
	assert.True(t, called)
}

func TestPipeline_Routing(t *testing.T) {
	t.Parallel()

	pipe := routedPipe(t, func(c *Collector) {
		_, _ = c.Get("/foo", text("get foo"), "")
		_, _ = c.Post("/foo", text("post foo"), "")
		_, _ = c.Any("/any", text("any"), "")
		_, _ = c.Route("/opts", text("explicit options"), []string{"OPTIONS", "GET"}, "")
		_, _ = c.Route("/head", text("explicit head"), []string{"HEAD", "GET"}, "")
	})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
		wantAllow  string
	}{
		{"dispatch get", http.MethodGet, "/foo", http.StatusOK, "get foo", ""},
		{"dispatch post", http.MethodPost, "/foo", http.StatusOK, "post foo", ""},
		{"any method", http.MethodDelete, "/any", http.StatusOK, "any", ""},
		{"method not allowed", http.MethodPut, "/foo", http.StatusMethodNotAllowed, "", "GET,POST"},
		{"implicit options", http.MethodOptions, "/foo", http.StatusOK, "", "GET,POST"},
		{"explicit options", http.MethodOptions, "/opts", http.StatusOK, "explicit options", ""},
		{"implicit head drops body", http.MethodHead, "/foo", http.StatusOK, "", ""},
		{"explicit head", http.MethodHead, "/head", http.StatusOK, "explicit head", ""},
		{"not found falls through", http.MethodGet, "/nope", http.StatusNotFound, "Cannot GET /nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(pipe, tt.method, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Allow"))
		})
	}
}

func TestImplicitHead_ForwardsAsGet(t *testing.T) {
	t.Parallel()

	var method, forwarded string
	pipe := routedPipe(t, func(c *Collector) {
		_, _ = c.Get("/doc", pipeline.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			forwarded = ForwardedMethod(r.Context())
			w.Header().Set("X-Doc", "1")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("body"))
		})), "")
	})

	rec := serve(pipe, http.MethodHead, "/doc")
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, http.MethodHead, forwarded)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Doc"))
	assert.Empty(t, rec.Body.String())
}

func TestImplicitHead_NoGetRoute(t *testing.T) {
	t.Parallel()

	pipe := routedPipe(t, func(c *Collector) {
		_, _ = c.Post("/only-post", text("post"), "")
	})

	rec := serve(pipe, http.MethodHead, "/only-post")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestRouteMiddlewares_WithoutResult(t *testing.T) {
	t.Parallel()

	mws := []pipeline.Middleware{
		DispatchMiddleware(),
		MethodNotAllowedMiddleware(nil),
		ImplicitOptionsMiddleware(nil),
		ImplicitHeadMiddleware(newStaticRouter()),
	}
	for _, mw := range mws {
		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		mw.Process(httptest.NewRecorder(), req, next)
		assert.True(t, called)
	}
}

func TestMethodNotAllowed_CustomResponder(t *testing.T) {
	t.Parallel()

	responder := func(w http.ResponseWriter, r *http.Request, status int) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("cannot " + r.Method))
	}
	mw := MethodNotAllowedMiddleware(responder)

	req := httptest.NewRequest(http.MethodPut, "/foo", nil)
	req = req.WithContext(WithResult(req.Context(), FromRouteFailure([]string{"GET"})))
	rec := httptest.NewRecorder()
	mw.Process(rec, req, http.NotFoundHandler())

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
	assert.Equal(t, "cannot PUT", rec.Body.String())
}

func TestTracker(t *testing.T) {
	t.Parallel()

	pipe := routedPipe(t, func(c *Collector) {
		_, _ = c.Get("/tracked", text("ok"), "tracked")
	})

	req, tracker := Track(httptest.NewRequest(http.MethodHead, "/tracked", nil))
	again, same := Track(req)
	assert.Same(t, req, again)
	assert.Same(t, tracker, same)
	assert.Nil(t, tracker.Result())
	assert.Empty(t, tracker.RouteName())

	pipe.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tracked", tracker.RouteName())
}
