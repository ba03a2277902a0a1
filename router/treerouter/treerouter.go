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

// Package treerouter adapts github.com/julienschmidt/httprouter to
// router.Router.
//
// Patterns use httprouter syntax: "/users/:id" and a trailing "/*path"
// catch-all. httprouter does not allow a static segment and a parameter at the
// same position ("/users/new" next to "/users/:id"); such routes are rejected
// by AddRoute.
package treerouter

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"

	"rivaas.dev/conduit/router"
)

// Router matches request paths with an httprouter tree.
type Router struct {
	mu    sync.RWMutex
	tree  *httprouter.Router
	index *router.Index
}

var _ router.Router = (*Router)(nil)

// New creates an empty router.
func New() *Router {
	tree := httprouter.New()
	tree.RedirectTrailingSlash = false
	tree.RedirectFixedPath = false
	tree.HandleMethodNotAllowed = false

	return &Router{
		tree:  tree,
		index: router.NewIndex(),
	}
}

// AddRoute implements router.Router.
func (rt *Router) AddRoute(route *router.Route) (err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	pattern := route.Path()
	if !rt.index.Add(pattern, route) {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			rt.index.Remove(pattern, route)
			err = fmt.Errorf("treerouter: %w: %v", router.ErrInvalidRoute, rec)
		}
	}()
	rt.tree.Handle(http.MethodGet, pattern, patternHandle(pattern))
	return nil
}

// capture receives the pattern of a looked-up handle.
type capture struct {
	http.ResponseWriter
	pattern string
}

// patternHandle returns a handle that reports its pattern to a capture.
// The handle is never used to serve requests.
func patternHandle(pattern string) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		if c, ok := w.(*capture); ok {
			c.pattern = pattern
		}
	}
}

// Match implements router.Router.
func (rt *Router) Match(r *http.Request) *router.Result {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	rt.mu.RLock()
	handle, ps, _ := rt.tree.Lookup(http.MethodGet, path)
	rt.mu.RUnlock()
	if handle == nil {
		return router.FromRouteFailure(router.MethodAny)
	}

	var c capture
	handle(&c, nil, nil)

	params := make(map[string]string, len(ps))
	for _, p := range ps {
		params[p.Key] = p.Value
	}
	return rt.index.Negotiate(r.Method, c.pattern, params)
}

// GenerateURI implements router.Router. Named parameters are path-escaped;
// the catch-all value is inserted as given.
func (rt *Router) GenerateURI(name string, params map[string]string, opts ...router.URIOption) (string, error) {
	route, ok := rt.index.Lookup(name)
	if !ok {
		return "", router.RouteNotFoundError(name)
	}

	segments := strings.Split(route.Path(), "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		switch seg[0] {
		case ':':
			v, ok := params[seg[1:]]
			if !ok {
				return "", router.MissingParameterError(name, seg[1:])
			}
			segments[i] = url.PathEscape(v)
		case '*':
			segments[i] = strings.TrimPrefix(params[seg[1:]], "/")
		}
	}

	return router.NewURIOptions(opts...).Apply(strings.Join(segments, "/")), nil
}
