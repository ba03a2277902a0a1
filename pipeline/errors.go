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

package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMiddleware indicates a value that cannot be used as middleware.
	ErrInvalidMiddleware = errors.New("invalid middleware")

	// ErrMissingDependency indicates a middleware service name unknown to the container.
	ErrMissingDependency = errors.New("missing middleware dependency")

	// ErrEmptyPipeline indicates an empty list of middleware where at least one is required.
	ErrEmptyPipeline = errors.New("middleware pipeline is empty")
)

// InvalidMiddlewareError describes a value that could not be turned into a [Middleware].
type InvalidMiddlewareError struct {
	// Service is the container service name the value was resolved from, if any.
	Service string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *InvalidMiddlewareError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("pipeline: service %q resolved to %T, which is not valid middleware", e.Service, e.Value)
	}
	if s, ok := e.Value.(string); ok && s == "" {
		return "pipeline: middleware service name cannot be empty"
	}

	return fmt.Sprintf("pipeline: %T is not valid middleware", e.Value)
}

// Unwrap returns [ErrInvalidMiddleware].
func (e *InvalidMiddlewareError) Unwrap() error {
	return ErrInvalidMiddleware
}
