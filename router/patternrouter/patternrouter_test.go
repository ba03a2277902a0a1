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

package patternrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

func TestPattern_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		tokens  map[string]string
		path    string
		want    map[string]string
		match   bool
	}{
		{"/", nil, "/", map[string]string{}, true},
		{"/", nil, "", map[string]string{}, true},
		{"/users", nil, "/users/", map[string]string{}, true},
		{"/users", nil, "/users/1", nil, false},
		{"/users/:id", nil, "/users/42", map[string]string{"id": "42"}, true},
		{"/users/:id", map[string]string{"id": `\d+`}, "/users/abc", nil, false},
		{`/users/:id(\d+)`, nil, "/users/7", map[string]string{"id": "7"}, true},
		{"/posts/:slug?", nil, "/posts", map[string]string{}, true},
		{"/posts/:slug?", nil, "/posts/hi", map[string]string{"slug": "hi"}, true},
		{"/tags/:tags+", nil, "/tags/a/b", map[string]string{"tags": "a/b"}, true},
		{"/tags/:tags+", nil, "/tags", nil, false},
		{"/docs/:path*", nil, "/docs", map[string]string{}, true},
		{"/docs/:path*", nil, "/docs/a/b/c", map[string]string{"path": "a/b/c"}, true},
		{"/files/*", nil, "/files/x", map[string]string{}, true},
		{"/files/*", nil, "/files/x/y", nil, false},
		{"/files/**", nil, "/files/x/y", map[string]string{}, true},
		{"/a.b", nil, "/aXb", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.pattern, tt.tokens)
			require.NoError(t, err)

			got, ok := p.Match(tt.path)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPattern_Invalid(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"users", "/:", "/:id(", "/*name", `/:id([)`, "/x(y)"} {
		_, err := Compile(pattern, nil)
		require.ErrorIs(t, err, ErrInvalidPattern, pattern)
	}
}

func TestPattern_Expand(t *testing.T) {
	t.Parallel()

	p, err := Compile("/users/:id/posts/:slug?/:rest*", nil)
	require.NoError(t, err)

	got, err := p.Expand(map[string]string{"id": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/users/a%20b/posts", got)

	got, err = p.Expand(map[string]string{"id": "1", "slug": "s", "rest": "x/y"})
	require.NoError(t, err)
	assert.Equal(t, "/users/1/posts/s/x/y", got)

	_, err = p.Expand(nil)
	require.Error(t, err)

	root, err := Compile("/", nil)
	require.NoError(t, err)
	got, err = root.Expand(nil)
	require.NoError(t, err)
	assert.Equal(t, "/", got)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	noop := pipeline.Handler(http.NotFoundHandler())
	rt := New()
	c := router.NewCollector(rt)

	user, err := router.NewRoute("/users/:id", noop, []string{"GET"}, "user")
	require.NoError(t, err)
	user.SetOptions(map[string]any{OptionTokens: map[string]any{"id": `\d+`}})
	require.NoError(t, c.Add(user))

	_, err = c.Get("/users/:name", noop, "user.byname")
	require.NoError(t, err)
	_, err = c.Post("/users/:id", noop, "user.update")
	require.NoError(t, err)

	res := rt.Match(httptest.NewRequest(http.MethodGet, "/users/12", nil))
	require.True(t, res.IsSuccess())
	assert.Equal(t, "user", res.MatchedRouteName())

	res = rt.Match(httptest.NewRequest(http.MethodGet, "/users/bob", nil))
	require.True(t, res.IsSuccess())
	assert.Equal(t, "user.byname", res.MatchedRouteName())
	assert.Equal(t, map[string]string{"name": "bob"}, res.MatchedParams())

	res = rt.Match(httptest.NewRequest(http.MethodDelete, "/users/12", nil))
	assert.Equal(t, []string{"GET", "POST"}, res.AllowedMethods())

	assert.True(t, rt.Match(httptest.NewRequest(http.MethodGet, "/nope", nil)).IsFailure())

	uri, err := rt.GenerateURI("user", map[string]string{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, "/users/5", uri)

	_, err = rt.GenerateURI("user", nil)
	require.ErrorIs(t, err, router.ErrMissingParameter)

	bad, err := router.NewRoute("/x/:id", noop, nil, "")
	require.NoError(t, err)
	bad.SetOptions(map[string]any{OptionTokens: "oops"})
	require.ErrorIs(t, rt.AddRoute(bad), router.ErrInvalidRoute)
}

func TestRouter_EquivalentPatterns(t *testing.T) {
	t.Parallel()

	noop := pipeline.Handler(http.NotFoundHandler())
	rt := New()
	require.NoError(t, rt.AddRoute(router.MustNewRoute("/users/:id", noop, []string{"GET"}, "user")))

	err := rt.AddRoute(router.MustNewRoute("/users/:name", noop, []string{"POST"}, "user.byname"))
	require.ErrorIs(t, err, router.ErrInvalidRoute)

	res := rt.Match(httptest.NewRequest(http.MethodPost, "/users/7", nil))
	assert.Equal(t, []string{"GET"}, res.AllowedMethods())

	_, err = rt.GenerateURI("user.byname", nil)
	require.ErrorIs(t, err, router.ErrRouteNotFound)
}
