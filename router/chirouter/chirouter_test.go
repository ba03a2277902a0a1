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

package chirouter

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

var ok = pipeline.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}))

func newRouter(t *testing.T) *Router {
	t.Helper()

	rt := New()
	c := router.NewCollector(rt)
	for _, def := range []struct {
		path    string
		methods []string
		name    string
	}{
		{"/users", []string{"GET"}, "users"},
		{"/users", []string{"POST"}, "users.create"},
		{"/users/{id:[0-9]+}", []string{"GET", "PUT"}, "user"},
		{"/users/{id:[0-9]+}/posts/{slug}", []string{"GET"}, "user.post"},
		{"/files/*", []string{"GET"}, "files"},
		{"/any", router.MethodAny, "any"},
	} {
		_, err := c.Route(def.path, ok, def.methods, def.name)
		require.NoError(t, err)
	}
	return rt
}

func TestRouter_Match(t *testing.T) {
	t.Parallel()

	rt := newRouter(t)

	tests := []struct {
		name        string
		method      string
		target      string
		wantRoute   string
		wantParams  map[string]string
		wantAllowed []string
	}{
		{"static", http.MethodGet, "/users", "users", map[string]string{}, nil},
		{"same path other method", http.MethodPost, "/users", "users.create", map[string]string{}, nil},
		{"regex param", http.MethodPut, "/users/42", "user", map[string]string{"id": "42"}, nil},
		{"two params", http.MethodGet, "/users/7/posts/hello", "user.post", map[string]string{"id": "7", "slug": "hello"}, nil},
		{"escaped param", http.MethodGet, "/users/7/posts/a%2Fb", "user.post", map[string]string{"id": "7", "slug": "a/b"}, nil},
		{"catch-all", http.MethodGet, "/files/a/b.txt", "files", map[string]string{"*": "a/b.txt"}, nil},
		{"any method", http.MethodPatch, "/any", "any", map[string]string{}, nil},
		{"method failure", http.MethodDelete, "/users", "", nil, []string{"GET", "POST"}},
		{"head is not implicit", http.MethodHead, "/users/1", "", nil, []string{"GET", "PUT"}},
		{"regex mismatch", http.MethodGet, "/users/abc", "", nil, nil},
		{"not found", http.MethodGet, "/nope", "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := rt.Match(httptest.NewRequest(tt.method, tt.target, nil))
			require.NotNil(t, res)
			if tt.wantRoute == "" {
				assert.True(t, res.IsFailure())
				assert.Equal(t, tt.wantAllowed, res.AllowedMethods())
				return
			}
			require.True(t, res.IsSuccess())
			assert.Equal(t, tt.wantRoute, res.MatchedRouteName())
			assert.Equal(t, tt.wantParams, res.MatchedParams())
		})
	}
}

func TestRouter_GenerateURI(t *testing.T) {
	t.Parallel()

	rt := newRouter(t)

	uri, err := rt.GenerateURI("user.post", map[string]string{"id": "7", "slug": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/users/7/posts/a%20b", uri)

	uri, err = rt.GenerateURI("files", map[string]string{"*": "docs/readme.md"}, router.WithQuery(url.Values{"dl": {"1"}}))
	require.NoError(t, err)
	assert.Equal(t, "/files/docs/readme.md?dl=1", uri)

	_, err = rt.GenerateURI("user", nil)
	require.ErrorIs(t, err, router.ErrMissingParameter)

	_, err = rt.GenerateURI("missing", nil)
	require.ErrorIs(t, err, router.ErrRouteNotFound)
}

func TestRouter_InvalidPattern(t *testing.T) {
	t.Parallel()

	rt := New()
	err := rt.AddRoute(router.MustNewRoute("no-slash", ok, nil, ""))
	require.ErrorIs(t, err, router.ErrInvalidRoute)

	res := rt.Match(httptest.NewRequest(http.MethodGet, "/no-slash", nil))
	assert.True(t, res.IsFailure())

	_, err = rt.GenerateURI("no-slash", nil)
	require.ErrorIs(t, err, router.ErrRouteNotFound)
}

func TestRouter_Pipeline(t *testing.T) {
	t.Parallel()

	rt := newRouter(t)
	pipe := pipeline.NewPipe(router.Middleware(rt), router.MethodNotAllowedMiddleware(nil), router.DispatchMiddleware())

	rec := httptest.NewRecorder()
	pipe.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/5", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	pipe.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/5", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET,PUT", rec.Header().Get("Allow"))
}

func TestRouter_ParamNameConflict(t *testing.T) {
	t.Parallel()

	rt := New()
	require.NoError(t, rt.AddRoute(router.MustNewRoute("/users/{id}", ok, []string{"GET"}, "user")))

	err := rt.AddRoute(router.MustNewRoute("/users/{name}", ok, []string{"POST"}, "user.byname"))
	require.ErrorIs(t, err, router.ErrInvalidRoute)
	assert.Contains(t, err.Error(), `"/users/{id}"`)

	// Same parameter under another expression is a different chi node.
	require.NoError(t, rt.AddRoute(router.MustNewRoute("/users/{name:[a-z]+}", ok, []string{"POST"}, "user.create")))

	res := rt.Match(httptest.NewRequest(http.MethodGet, "/users/7", nil))
	require.True(t, res.IsSuccess())
	assert.Equal(t, "user", res.MatchedRouteName())
	assert.Equal(t, map[string]string{"id": "7"}, res.MatchedParams())

	_, err = rt.GenerateURI("user.byname", nil)
	require.ErrorIs(t, err, router.ErrRouteNotFound)
}

func TestShape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/users/{}/posts/{}", shape("/users/{id}/posts/{slug}"))
	assert.Equal(t, "/users/{:[0-9]{3}}", shape("/users/{id:[0-9]{3}}"))
	assert.Equal(t, "/files/*", shape("/files/*"))
}
