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
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Index keeps the routes a backend has registered, keyed by path pattern and
// by name, and performs method negotiation for matched patterns.
//
// Backends register each distinct pattern with their library once, match on
// the path alone, and hand the matched pattern to Negotiate.
type Index struct {
	mu       sync.RWMutex
	patterns map[string][]*Route
	names    map[string]*Route
	shapes   map[string]string
	order    []string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		patterns: make(map[string][]*Route),
		names:    make(map[string]*Route),
		shapes:   make(map[string]string),
	}
}

// Add records route under pattern. It reports whether the pattern was not
// seen before, in which case the backend must register it with its library.
func (ix *Index) Add(pattern string, route *Route) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, seen := ix.patterns[pattern]
	ix.patterns[pattern] = append(ix.patterns[pattern], route)
	if !seen {
		ix.order = append(ix.order, pattern)
	}
	if _, named := ix.names[route.Name()]; !named {
		ix.names[route.Name()] = route
	}
	return !seen
}

// AddShaped is Add for libraries that key their tree by pattern shape and
// silently replace an endpoint whose pattern differs only in parameter
// names. A pattern whose shape is already held by a different pattern is
// rejected with ErrInvalidRoute and the route is not recorded.
func (ix *Index) AddShaped(pattern, shape string, route *Route) (bool, error) {
	ix.mu.Lock()
	held, ok := ix.shapes[shape]
	if ok && held != pattern {
		ix.mu.Unlock()
		return false, fmt.Errorf("%w: pattern %q conflicts with existing pattern %q", ErrInvalidRoute, pattern, held)
	}
	ix.shapes[shape] = pattern
	ix.mu.Unlock()

	return ix.Add(pattern, route), nil
}

// Remove drops the last route added under pattern. Backends call it when
// their library rejects a new pattern.
func (ix *Index) Remove(pattern string, route *Route) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	routes := ix.patterns[pattern]
	if i := slices.Index(routes, route); i >= 0 {
		routes = slices.Delete(routes, i, i+1)
	}
	if len(routes) == 0 {
		delete(ix.patterns, pattern)
		maps.DeleteFunc(ix.shapes, func(_, p string) bool { return p == pattern })
		ix.order = slices.DeleteFunc(ix.order, func(p string) bool { return p == pattern })
	} else {
		ix.patterns[pattern] = routes
	}
	if ix.names[route.Name()] == route {
		delete(ix.names, route.Name())
	}
}

// Lookup returns the route registered under name.
func (ix *Index) Lookup(name string) (*Route, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	r, ok := ix.names[name]
	return r, ok
}

// Patterns returns the registered patterns in insertion order.
func (ix *Index) Patterns() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return slices.Clone(ix.order)
}

// Routes returns the routes registered under pattern.
func (ix *Index) Routes(pattern string) []*Route {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return slices.Clone(ix.patterns[pattern])
}

// Negotiate resolves method against the routes under a matched pattern.
//
// The first route allowing the method wins; its result parameters are the
// route defaults overlaid with params. When routes exist but none allows the
// method, the result is a method failure listing the sorted union of their
// methods. An unknown pattern yields a plain failure.
func (ix *Index) Negotiate(method, pattern string, params map[string]string) *Result {
	ix.mu.RLock()
	routes := ix.patterns[pattern]
	ix.mu.RUnlock()

	if len(routes) == 0 {
		return FromRouteFailure(MethodAny)
	}

	method = strings.ToUpper(method)
	for _, r := range routes {
		if r.AllowsMethod(method) {
			return FromRoute(r, mergeParams(r.Defaults(), params))
		}
	}

	var allowed []string
	for _, r := range routes {
		allowed = append(allowed, r.methods...)
	}
	slices.Sort(allowed)
	return FromRouteFailure(slices.Compact(allowed))
}

func mergeParams(defaults, params map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(params))
	maps.Copy(out, defaults)
	maps.Copy(out, params)
	return out
}
