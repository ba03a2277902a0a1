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

// Package muxrouter adapts the standard library http.ServeMux to
// router.Router.
//
// Patterns use ServeMux syntax without a method or host: "/users/{id}",
// "/files/{path...}" and "/{$}". Matching follows ServeMux precedence rules,
// including its trailing-slash subtree patterns such as "/static/".
package muxrouter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"rivaas.dev/conduit/router"
)

type probeKey struct{}

// probe records which pattern handled a request and its wildcard values.
type probe struct {
	pattern string
	params  map[string]string
}

// Router matches request paths by running them through an http.ServeMux
// whose handlers only record the match.
type Router struct {
	mu    sync.RWMutex
	mux   *http.ServeMux
	index *router.Index
}

var _ router.Router = (*Router)(nil)

// New creates an empty router.
func New() *Router {
	return &Router{
		mux:   http.NewServeMux(),
		index: router.NewIndex(),
	}
}

// AddRoute implements router.Router. Patterns carrying a method or host are
// rejected since method negotiation happens in the index.
func (rt *Router) AddRoute(route *router.Route) (err error) {
	pattern := route.Path()
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("muxrouter: %w: pattern %q must start with '/'", router.ErrInvalidRoute, pattern)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.index.Add(pattern, route) {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			rt.index.Remove(pattern, route)
			err = fmt.Errorf("muxrouter: %w: %v", router.ErrInvalidRoute, rec)
		}
	}()
	rt.mux.Handle(pattern, recorder(pattern, wildcards(pattern)))
	return nil
}

func recorder(pattern string, names []string) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		p, ok := r.Context().Value(probeKey{}).(*probe)
		if !ok {
			return
		}
		p.pattern = pattern
		p.params = make(map[string]string, len(names))
		for _, name := range names {
			p.params[name] = r.PathValue(name)
		}
	})
}

// Match implements router.Router.
func (rt *Router) Match(r *http.Request) *router.Result {
	var p probe
	req := r.WithContext(context.WithValue(r.Context(), probeKey{}, &p))
	req.Method = http.MethodGet

	rt.mu.RLock()
	rt.mux.ServeHTTP(discard{header: http.Header{}}, req)
	rt.mu.RUnlock()

	if p.pattern == "" {
		return router.FromRouteFailure(router.MethodAny)
	}
	return rt.index.Negotiate(r.Method, p.pattern, p.params)
}

// discard absorbs whatever ServeMux writes for unmatched or redirected paths.
type discard struct {
	header http.Header
}

func (d discard) Header() http.Header         { return d.header }
func (d discard) Write(b []byte) (int, error) { return len(b), nil }
func (d discard) WriteHeader(int)             {}

// wildcards lists the wildcard names of a pattern in order.
func wildcards(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(seg[1:len(seg)-1], "...")
		if name != "$" && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// GenerateURI implements router.Router.
func (rt *Router) GenerateURI(name string, params map[string]string, opts ...router.URIOption) (string, error) {
	route, ok := rt.index.Lookup(name)
	if !ok {
		return "", router.RouteNotFoundError(name)
	}

	segments := strings.Split(route.Path(), "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		key := seg[1 : len(seg)-1]
		switch {
		case key == "$":
			segments[i] = ""
		case strings.HasSuffix(key, "..."):
			segments[i] = strings.TrimPrefix(params[strings.TrimSuffix(key, "...")], "/")
		default:
			v, ok := params[key]
			if !ok {
				return "", router.MissingParameterError(name, key)
			}
			segments[i] = url.PathEscape(v)
		}
	}

	return router.NewURIOptions(opts...).Apply(strings.Join(segments, "/")), nil
}
