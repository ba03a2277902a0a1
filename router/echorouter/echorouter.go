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

// Package echorouter adapts the router of github.com/labstack/echo/v4 to
// router.Router.
//
// Patterns use echo syntax: "/users/:id" and "*" for a catch-all whose value
// is the "*" parameter. Patterns without a leading slash get one, as echo
// itself does.
package echorouter

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"rivaas.dev/conduit/router"
)

const patternKey = "conduit.pattern"

// Router matches request paths with an echo router.
type Router struct {
	mu    sync.RWMutex
	echo  *echo.Echo
	index *router.Index
}

var _ router.Router = (*Router)(nil)

// New creates an empty router.
func New() *Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Router{
		echo:  e,
		index: router.NewIndex(),
	}
}

func normalize(pattern string) string {
	if !strings.HasPrefix(pattern, "/") {
		return "/" + pattern
	}
	return pattern
}

// shape strips parameter names: "/users/:id/posts" becomes "/users/:/posts".
func shape(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		b.WriteByte(pattern[i])
		if pattern[i] == ':' {
			for i+1 < len(pattern) && pattern[i+1] != '/' {
				i++
			}
		}
	}
	return b.String()
}

// AddRoute implements router.Router. Echo keeps one endpoint per pattern
// shape, so a pattern differing from a registered one only in parameter
// names is rejected.
func (rt *Router) AddRoute(route *router.Route) (err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	pattern := normalize(route.Path())
	added, err := rt.index.AddShaped(pattern, shape(pattern), route)
	if err != nil {
		return fmt.Errorf("echorouter: %w", err)
	}
	if !added {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			rt.index.Remove(pattern, route)
			err = fmt.Errorf("echorouter: %w: %v", router.ErrInvalidRoute, rec)
		}
	}()
	rt.echo.Router().Add(http.MethodGet, pattern, func(c echo.Context) error {
		c.Set(patternKey, pattern)
		return nil
	})
	return nil
}

// Match implements router.Router. Echo reports a miss by resolving its
// not-found handler, so the resolved handler is invoked: route handlers
// record their pattern, echo's own handlers return an error.
func (rt *Router) Match(r *http.Request) *router.Result {
	path, raw := r.URL.Path, false
	if r.URL.RawPath != "" {
		path, raw = r.URL.RawPath, true
	}
	if path == "" {
		path = "/"
	}

	rt.mu.RLock()
	c := rt.echo.NewContext(r, nil)
	rt.echo.Router().Find(http.MethodGet, path, c)
	rt.mu.RUnlock()

	if err := c.Handler()(c); err != nil {
		return router.FromRouteFailure(router.MethodAny)
	}
	pattern, ok := c.Get(patternKey).(string)
	if !ok {
		return router.FromRouteFailure(router.MethodAny)
	}

	names, values := c.ParamNames(), c.ParamValues()
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i >= len(values) {
			break
		}
		v := values[i]
		if raw {
			if unescaped, err := url.PathUnescape(v); err == nil {
				v = unescaped
			}
		}
		params[name] = v
	}

	return rt.index.Negotiate(r.Method, pattern, params)
}

// GenerateURI implements router.Router.
func (rt *Router) GenerateURI(name string, params map[string]string, opts ...router.URIOption) (string, error) {
	route, ok := rt.index.Lookup(name)
	if !ok {
		return "", router.RouteNotFoundError(name)
	}

	pattern := normalize(route.Path())
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case ':':
			end := strings.IndexByte(pattern[i:], '/')
			if end < 0 {
				end = len(pattern) - i
			}
			key := pattern[i+1 : i+end]
			v, ok := params[key]
			if !ok {
				return "", router.MissingParameterError(name, key)
			}
			b.WriteString(url.PathEscape(v))
			i += end - 1
		case '*':
			b.WriteString(strings.TrimPrefix(params["*"], "/"))
		default:
			b.WriteByte(c)
		}
	}

	return router.NewURIOptions(opts...).Apply(b.String()), nil
}
