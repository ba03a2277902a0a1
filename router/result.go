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
	"maps"
	"net/http"
	"slices"
)

// Result is the outcome of matching a request against a Router.
//
// A successful result carries the matched route and its parameters. A failed
// result carries the methods the path would have accepted: a non-nil list
// marks a method failure (405), a nil list a plain miss (404).
type Result struct {
	success bool
	route   *Route
	params  map[string]string
	methods []string
}

// FromRoute creates a successful result.
func FromRoute(route *Route, params map[string]string) *Result {
	if params == nil {
		params = map[string]string{}
	}
	return &Result{
		success: true,
		route:   route,
		params:  params,
	}
}

// FromRouteFailure creates a failed result. Pass MethodAny (nil) when the path
// did not match at all, or the accepted methods when only the method did not.
func FromRouteFailure(methods []string) *Result {
	return &Result{methods: slices.Clone(methods)}
}

// IsSuccess reports whether a route matched.
func (r *Result) IsSuccess() bool { return r.success }

// IsFailure reports whether no route matched.
func (r *Result) IsFailure() bool { return !r.success }

// IsMethodFailure reports whether the path matched but the method did not.
func (r *Result) IsMethodFailure() bool {
	return !r.success && r.methods != nil
}

// MatchedRoute returns the matched route, or nil on failure.
func (r *Result) MatchedRoute() *Route {
	if !r.success {
		return nil
	}
	return r.route
}

// MatchedRouteName returns the matched route name, or "" on failure.
func (r *Result) MatchedRouteName() string {
	if !r.success {
		return ""
	}
	return r.route.Name()
}

// MatchedParams returns a copy of the matched parameters.
func (r *Result) MatchedParams() map[string]string {
	if !r.success {
		return map[string]string{}
	}
	return maps.Clone(r.params)
}

// Param returns a single matched parameter.
func (r *Result) Param(name string) (string, bool) {
	v, ok := r.params[name]
	return v, ok
}

// AllowedMethods returns the matched route's methods on success, and the
// methods accepted by the path on failure. nil means any method.
func (r *Result) AllowedMethods() []string {
	if r.success {
		return r.route.AllowedMethods()
	}
	return slices.Clone(r.methods)
}

// Process dispatches to the matched route, or delegates to next on failure.
func (r *Result) Process(w http.ResponseWriter, req *http.Request, next http.Handler) {
	if !r.success {
		next.ServeHTTP(w, req)
		return
	}
	r.route.Process(w, req, next)
}
