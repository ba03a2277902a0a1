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

package treerouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

var noop = pipeline.Handler(http.NotFoundHandler())

func TestRouter_Match(t *testing.T) {
	t.Parallel()

	rt := New()
	c := router.NewCollector(rt)
	_, err := c.Get("/users/:id", noop, "user")
	require.NoError(t, err)
	_, err = c.Delete("/users/:id", noop, "user.delete")
	require.NoError(t, err)
	_, err = c.Get("/static/*filepath", noop, "static")
	require.NoError(t, err)
	_, err = c.Any("/", noop, "home")
	require.NoError(t, err)

	res := rt.Match(httptest.NewRequest(http.MethodDelete, "/users/9", nil))
	require.True(t, res.IsSuccess())
	assert.Equal(t, "user.delete", res.MatchedRouteName())
	assert.Equal(t, map[string]string{"id": "9"}, res.MatchedParams())

	res = rt.Match(httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	require.True(t, res.IsSuccess())
	assert.Equal(t, map[string]string{"filepath": "/css/site.css"}, res.MatchedParams())

	res = rt.Match(httptest.NewRequest(http.MethodPost, "/users/9", nil))
	assert.True(t, res.IsMethodFailure())
	assert.Equal(t, []string{"DELETE", "GET"}, res.AllowedMethods())

	res = rt.Match(httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, "home", res.MatchedRouteName())

	res = rt.Match(httptest.NewRequest(http.MethodGet, "/users/9/extra", nil))
	assert.True(t, res.IsFailure())
	assert.False(t, res.IsMethodFailure())

	res = rt.Match(httptest.NewRequest(http.MethodGet, "/users/9/", nil))
	assert.True(t, res.IsFailure())
}

func TestRouter_Conflicts(t *testing.T) {
	t.Parallel()

	rt := New()
	require.NoError(t, rt.AddRoute(router.MustNewRoute("/users/:id", noop, []string{"GET"}, "")))

	err := rt.AddRoute(router.MustNewRoute("/users/:name", noop, []string{"POST"}, ""))
	require.ErrorIs(t, err, router.ErrInvalidRoute)

	err = rt.AddRoute(router.MustNewRoute("relative", noop, nil, ""))
	require.ErrorIs(t, err, router.ErrInvalidRoute)

	res := rt.Match(httptest.NewRequest(http.MethodPost, "/users/1", nil))
	assert.Equal(t, []string{"GET"}, res.AllowedMethods())
}

func TestRouter_GenerateURI(t *testing.T) {
	t.Parallel()

	rt := New()
	require.NoError(t, rt.AddRoute(router.MustNewRoute("/users/:id/files/*path", noop, []string{"GET"}, "file")))

	uri, err := rt.GenerateURI("file", map[string]string{"id": "a/b", "path": "/x/y.txt"}, router.WithFragment("l10"))
	require.NoError(t, err)
	assert.Equal(t, "/users/a%2Fb/files/x/y.txt#l10", uri)

	_, err = rt.GenerateURI("file", map[string]string{"path": "x"})
	require.ErrorIs(t, err, router.ErrMissingParameter)
}
