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

// Package errors formats Go errors as machine-readable HTTP error bodies.
//
// Three formatters are provided:
//
//   - RFC9457: Problem Details (application/problem+json)
//   - JSONAPI: JSON:API error objects (application/vnd.api+json)
//   - Simple: a flat JSON object (application/json)
//
// Errors control their rendering by implementing the optional ErrorType,
// ErrorCode and ErrorDetails interfaces. WithStatus attaches a status to any
// error.
//
// The error handler middleware uses Negotiate to choose between these
// formatters and an HTML or plain-text page:
//
//	f := errors.Negotiate(r.Header.Get("Accept"), errors.NewRFC9457(""), errors.NewSimple())
//	if f != nil {
//		_ = errors.Write(w, f.Format(r, err))
//	}
package errors
