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
	"strings"
)

var (
	// ErrInvalidRoute indicates that a route could not be constructed.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrDuplicateRoute indicates that a route conflicts with one already collected.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrRouteNotFound indicates that no route with the given name exists.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingParameter indicates that a parameter required to generate a URI is missing.
	ErrMissingParameter = errors.New("missing required parameter")
)

// DuplicateRouteError reports a route that would answer the same requests as
// an existing route, or reuse its name.
type DuplicateRouteError struct {
	Path    string
	Methods []string // nil means any method
	Name    string
}

func (e *DuplicateRouteError) Error() string {
	methods := "(any)"
	if e.Methods != nil {
		methods = strings.Join(e.Methods, ",")
	}
	return fmt.Sprintf("duplicate route detected; path %q answering to methods [%s], with name %q",
		e.Path, methods, e.Name)
}

func (e *DuplicateRouteError) Unwrap() error {
	return ErrDuplicateRoute
}

// MissingParameterError wraps ErrMissingParameter with the parameter and route names.
func MissingParameterError(route, param string) error {
	return fmt.Errorf("%w: %q for route %q", ErrMissingParameter, param, route)
}

// RouteNotFoundError wraps ErrRouteNotFound with the route name.
func RouteNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrRouteNotFound, name)
}
