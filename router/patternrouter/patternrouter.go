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

// Package patternrouter is a router.Router backed by compiled regular
// expressions (github.com/grafana/regexp).
//
// See Pattern for the syntax. A route may constrain its parameters through
// the "tokens" option:
//
//	route.SetOptions(map[string]any{"tokens": map[string]any{"id": `\d+`}})
//
// Patterns are tried in the order they were added and the first match wins.
package patternrouter

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/spf13/cast"

	"rivaas.dev/conduit/router"
)

// OptionTokens is the route option holding per-parameter expressions.
const OptionTokens = "tokens"

// Router matches request paths against compiled patterns.
type Router struct {
	mu       sync.RWMutex
	patterns []*Pattern
	index    *router.Index
}

var _ router.Router = (*Router)(nil)

// New creates an empty router.
func New() *Router {
	return &Router{index: router.NewIndex()}
}

// AddRoute implements router.Router. The tokens of the first route added for
// a path are used to compile it. A path matching exactly what a registered
// path matches, under other parameter names, is rejected.
func (rt *Router) AddRoute(route *router.Route) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	raw := route.Path()
	for _, p := range rt.patterns {
		if p.raw == raw {
			rt.index.Add(raw, route)
			return nil
		}
	}

	var tokens map[string]string
	if opt, ok := route.Options()[OptionTokens]; ok && opt != nil {
		var err error
		if tokens, err = cast.ToStringMapStringE(opt); err != nil {
			return fmt.Errorf("patternrouter: %w: %s: tokens option: %w", router.ErrInvalidRoute, raw, err)
		}
	}
	p, err := Compile(raw, tokens)
	if err != nil {
		return fmt.Errorf("patternrouter: %w: %w", router.ErrInvalidRoute, err)
	}

	if _, err := rt.index.AddShaped(raw, p.shape(), route); err != nil {
		return fmt.Errorf("patternrouter: %w", err)
	}
	rt.patterns = append(rt.patterns, p)
	return nil
}

// Match implements router.Router.
func (rt *Router) Match(r *http.Request) *router.Result {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	for _, p := range rt.patterns {
		if params, ok := p.Match(path); ok {
			return rt.index.Negotiate(r.Method, p.raw, params)
		}
	}
	return router.FromRouteFailure(router.MethodAny)
}

// GenerateURI implements router.Router.
func (rt *Router) GenerateURI(name string, params map[string]string, opts ...router.URIOption) (string, error) {
	route, ok := rt.index.Lookup(name)
	if !ok {
		return "", router.RouteNotFoundError(name)
	}

	rt.mu.RLock()
	var pattern *Pattern
	for _, p := range rt.patterns {
		if p.raw == route.Path() {
			pattern = p
			break
		}
	}
	rt.mu.RUnlock()
	if pattern == nil {
		return "", router.RouteNotFoundError(name)
	}

	path, err := pattern.Expand(params)
	if err != nil {
		return "", fmt.Errorf("%w: %s", router.ErrMissingParameter, err.Error())
	}
	return router.NewURIOptions(opts...).Apply(path), nil
}
