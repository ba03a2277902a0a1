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

// Package chirouter adapts github.com/go-chi/chi/v5 to router.Router.
//
// Patterns use chi syntax: "/users/{id}", "/users/{id:[0-9]+}" and a trailing
// "/*" catch-all whose value is the "*" parameter.
package chirouter

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"rivaas.dev/conduit/router"
)

// Router matches request paths with a chi.Mux.
type Router struct {
	mu    sync.RWMutex
	mux   *chi.Mux
	index *router.Index
}

var _ router.Router = (*Router)(nil)

// New creates an empty router.
func New() *Router {
	return &Router{
		mux:   chi.NewMux(),
		index: router.NewIndex(),
	}
}

// AddRoute implements router.Router. chi panics on malformed patterns; the
// panic is returned as an error and the route is not added. A pattern that
// differs from a registered one only in parameter names is rejected, since
// chi would replace the earlier endpoint.
func (rt *Router) AddRoute(route *router.Route) (err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	pattern := route.Path()
	added, err := rt.index.AddShaped(pattern, shape(pattern), route)
	if err != nil {
		return fmt.Errorf("chirouter: %w", err)
	}
	if !added {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			rt.index.Remove(pattern, route)
			err = fmt.Errorf("chirouter: %w: %v", router.ErrInvalidRoute, rec)
		}
	}()
	rt.mux.Method(http.MethodGet, pattern, http.HandlerFunc(noop))
	return nil
}

func noop(http.ResponseWriter, *http.Request) {}

// shape strips parameter names, keeping regular expressions:
// "/users/{id:[0-9]+}/{tab}" becomes "/users/{:[0-9]+}/{}".
func shape(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '{' {
			b.WriteByte(pattern[i])
			continue
		}
		end := closingBrace(pattern, i)
		if end < 0 {
			b.WriteString(pattern[i:])
			break
		}
		b.WriteByte('{')
		if _, re, ok := strings.Cut(pattern[i+1:end], ":"); ok {
			b.WriteString(":" + re)
		}
		b.WriteByte('}')
		i = end
	}
	return b.String()
}

// Match implements router.Router.
func (rt *Router) Match(r *http.Request) *router.Result {
	path, raw := r.URL.Path, false
	if r.URL.RawPath != "" {
		path, raw = r.URL.RawPath, true
	}
	if path == "" {
		path = "/"
	}

	rctx := chi.NewRouteContext()
	rt.mu.RLock()
	ok := rt.mux.Match(rctx, http.MethodGet, path)
	rt.mu.RUnlock()
	if !ok || len(rctx.RoutePatterns) == 0 {
		return router.FromRouteFailure(router.MethodAny)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		v := rctx.URLParams.Values[i]
		if raw {
			if unescaped, err := url.PathUnescape(v); err == nil {
				v = unescaped
			}
		}
		params[key] = v
	}

	pattern := rctx.RoutePatterns[len(rctx.RoutePatterns)-1]
	return rt.index.Negotiate(r.Method, pattern, params)
}

// GenerateURI implements router.Router. Parameter values are path-escaped,
// except the catch-all which may span segments.
func (rt *Router) GenerateURI(name string, params map[string]string, opts ...router.URIOption) (string, error) {
	route, ok := rt.index.Lookup(name)
	if !ok {
		return "", router.RouteNotFoundError(name)
	}

	pattern := route.Path()
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '{':
			end := closingBrace(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("chirouter: unbalanced braces in %q", pattern)
			}
			key, _, _ := strings.Cut(pattern[i+1:end], ":")
			v, ok := params[key]
			if !ok {
				return "", router.MissingParameterError(name, key)
			}
			b.WriteString(url.PathEscape(v))
			i = end
		case '*':
			b.WriteString(strings.TrimPrefix(params["*"], "/"))
		default:
			b.WriteByte(c)
		}
	}

	return router.NewURIOptions(opts...).Apply(b.String()), nil
}

// closingBrace finds the brace closing the one at start, allowing nested
// braces inside regular expressions such as {id:[0-9]{3}}.
func closingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
