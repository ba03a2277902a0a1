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
	"slices"
	"sync"

	"rivaas.dev/conduit/pipeline"
)

// Collector creates routes, rejects duplicates and forwards the rest to a
// Router.
//
//	routes := router.NewCollector(rt)
//	if _, err := routes.Get("/users/{id}", showUser, "user.show"); err != nil {
//		return err
//	}
type Collector struct {
	router Router

	mu     sync.Mutex
	routes []*Route
	names  map[string]*Route
}

// NewCollector creates a collector that adds routes to rt.
func NewCollector(rt Router) *Collector {
	return &Collector{
		router: rt,
		names:  make(map[string]*Route),
	}
}

// Router returns the backend routes are added to.
func (c *Collector) Router() Router {
	return c.router
}

// Route creates a route and adds it to the router.
//
// A route conflicts with a collected one when both share the path and either
// allows any method or they have a method in common. Reusing another route's
// name is a conflict too. Conflicts return a *DuplicateRouteError.
func (c *Collector) Route(path string, mw pipeline.Middleware, methods []string, name string) (*Route, error) {
	route, err := NewRoute(path, mw, methods, name)
	if err != nil {
		return nil, err
	}
	if err := c.Add(route); err != nil {
		return nil, err
	}
	return route, nil
}

// Add collects an existing route.
func (c *Collector) Add(route *Route) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conflicts(route) {
		return &DuplicateRouteError{
			Path:    route.Path(),
			Methods: route.AllowedMethods(),
			Name:    route.Name(),
		}
	}
	if err := c.router.AddRoute(route); err != nil {
		return err
	}

	c.routes = append(c.routes, route)
	c.names[route.Name()] = route
	return nil
}

func (c *Collector) conflicts(route *Route) bool {
	if _, taken := c.names[route.Name()]; taken {
		return true
	}
	for _, existing := range c.routes {
		if existing.Path() != route.Path() {
			continue
		}
		if existing.AllowsAnyMethod() || route.AllowsAnyMethod() {
			return true
		}
		for _, m := range route.methods {
			if slices.Contains(existing.methods, m) {
				return true
			}
		}
	}
	return false
}

// Get adds a GET route.
func (c *Collector) Get(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, []string{http.MethodGet}, name)
}

// Post adds a POST route.
func (c *Collector) Post(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, []string{http.MethodPost}, name)
}

// Put adds a PUT route.
func (c *Collector) Put(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, []string{http.MethodPut}, name)
}

// Patch adds a PATCH route.
func (c *Collector) Patch(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, []string{http.MethodPatch}, name)
}

// Delete adds a DELETE route.
func (c *Collector) Delete(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, []string{http.MethodDelete}, name)
}

// Any adds a route answering to every method.
func (c *Collector) Any(path string, mw pipeline.Middleware, name string) (*Route, error) {
	return c.Route(path, mw, MethodAny, name)
}

// Routes returns the collected routes in insertion order.
func (c *Collector) Routes() []*Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.routes)
}
