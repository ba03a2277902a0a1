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
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"rivaas.dev/conduit/pipeline"
)

// MethodAny is the method list of a route that answers to every method.
var MethodAny []string

// OptionDefaults is the route option holding default parameter values.
// Defaults fill in parameters the path did not capture.
const OptionDefaults = "defaults"

// Route associates a path pattern and a set of HTTP methods with a middleware.
//
// The path is interpreted by the backend the route is added to, so the same
// Route works with "/users/{id}" on chi and "/users/:id" on httprouter.
type Route struct {
	path       string
	middleware pipeline.Middleware
	methods    []string
	name       string
	options    map[string]any
}

// NewRoute creates a route.
//
// A nil methods slice (MethodAny) makes the route answer to every method.
// Methods are upper-cased and de-duplicated; each must be a valid HTTP token.
// When name is empty it defaults to the path for any-method routes and to
// "path^M1:M2" otherwise.
func NewRoute(path string, mw pipeline.Middleware, methods []string, name string) (*Route, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrInvalidRoute)
	}
	if mw == nil {
		return nil, fmt.Errorf("%w: middleware for %q cannot be nil", ErrInvalidRoute, path)
	}

	normalized, err := normalizeMethods(methods)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoute, path, err)
	}

	r := &Route{
		path:       path,
		middleware: mw,
		methods:    normalized,
		name:       name,
	}
	if r.name == "" {
		r.name = defaultName(path, normalized)
	}

	return r, nil
}

// MustNewRoute is like NewRoute but panics on error.
func MustNewRoute(path string, mw pipeline.Middleware, methods []string, name string) *Route {
	r, err := NewRoute(path, mw, methods, name)
	if err != nil {
		panic(err)
	}
	return r
}

func normalizeMethods(methods []string) ([]string, error) {
	if methods == nil {
		return nil, nil
	}
	if len(methods) == 0 {
		return nil, errors.New("method list cannot be empty; use MethodAny to match every method")
	}

	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if !isToken(m) {
			return nil, fmt.Errorf("invalid HTTP method %q", m)
		}
		m = strings.ToUpper(m)
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// isToken reports whether s is an RFC 7230 token.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

func defaultName(path string, methods []string) string {
	if methods == nil {
		return path
	}
	return path + "^" + strings.Join(methods, ":")
}

// Path returns the path pattern.
func (r *Route) Path() string { return r.path }

// Middleware returns the middleware the route dispatches to.
func (r *Route) Middleware() pipeline.Middleware { return r.middleware }

// Name returns the route name.
func (r *Route) Name() string { return r.name }

// SetName renames the route. Renaming a route after it was collected does not
// update the backend's name index.
func (r *Route) SetName(name string) { r.name = name }

// AllowedMethods returns the methods the route answers to, or nil for any method.
func (r *Route) AllowedMethods() []string {
	return slices.Clone(r.methods)
}

// AllowsAnyMethod reports whether the route answers to every method.
func (r *Route) AllowsAnyMethod() bool {
	return r.methods == nil
}

// AllowsMethod reports whether the route answers to method.
func (r *Route) AllowsMethod(method string) bool {
	if r.methods == nil {
		return true
	}
	return slices.Contains(r.methods, strings.ToUpper(method))
}

// ImplicitHead reports whether HEAD requests are answered through the GET route.
func (r *Route) ImplicitHead() bool {
	return !r.explicitly(http.MethodHead)
}

// ImplicitOptions reports whether OPTIONS requests are answered automatically.
func (r *Route) ImplicitOptions() bool {
	return !r.explicitly(http.MethodOptions)
}

func (r *Route) explicitly(method string) bool {
	return r.methods != nil && slices.Contains(r.methods, method)
}

// Options returns a copy of the route options.
func (r *Route) Options() map[string]any {
	return maps.Clone(r.options)
}

// SetOptions replaces the route options.
func (r *Route) SetOptions(options map[string]any) {
	r.options = maps.Clone(options)
}

// Defaults returns the default parameter values from the "defaults" option.
// Values of any scalar type are converted to strings.
func (r *Route) Defaults() map[string]string {
	raw, ok := r.options[OptionDefaults]
	if !ok || raw == nil {
		return nil
	}
	defaults, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil
	}
	return defaults
}

// Process delegates to the route middleware.
func (r *Route) Process(w http.ResponseWriter, req *http.Request, next http.Handler) {
	r.middleware.Process(w, req, next)
}

// methodsString renders the method list for display.
func (r *Route) methodsString() string {
	if r.methods == nil {
		return "(any)"
	}
	return strings.Join(r.methods, ",")
}

func (r *Route) String() string {
	return fmt.Sprintf("%s %s (%s)", r.methodsString(), r.path, r.name)
}
