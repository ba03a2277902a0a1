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

package errors

import (
	"errors"
	"net/http"
)

// Formatter turns an error into the parts of an HTTP response.
type Formatter interface {
	// Format builds the response for err. The request is used for values
	// such as the problem instance URI.
	Format(req *http.Request, err error) Response

	// MediaType is the media type this formatter produces, without
	// parameters. It is what Negotiate matches the Accept header against.
	MediaType() string
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON by Write.
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
//	type conflictError struct{ id string }
//
//	func (e conflictError) Error() string   { return e.id + " already exists" }
//	func (e conflictError) HTTPStatus() int { return http.StatusConflict }
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information,
// such as a list of field violations.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text is used as the message.
//
//	return errors.WithStatus(err, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// StatusCode resolves the HTTP status for err.
//
// A status declared through ErrorType wins when it is in the 400-599 range.
// Otherwise current is used when it already denotes an error (>= 400), which
// covers handlers that set a status before failing. Anything else is 500.
func StatusCode(err error, current int) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		if s := typed.HTTPStatus(); s >= 400 && s < 600 {
			return s
		}
	}
	if current >= 400 && current < 600 {
		return current
	}
	return http.StatusInternalServerError
}

// resolveStatus applies a formatter's StatusResolver, falling back to
// StatusCode.
func resolveStatus(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}
	return StatusCode(err, 0)
}

// NewRFC9457 creates an RFC 9457 formatter. baseURL is prepended to error
// codes to build problem type URIs.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewJSONAPI creates a JSON:API formatter.
func NewJSONAPI() *JSONAPI {
	return &JSONAPI{}
}

// NewSimple creates a Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}
