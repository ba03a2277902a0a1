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

import "net/http"

// Middleware processes a request and either produces a response itself or
// delegates to next.
type Middleware interface {
	Process(w http.ResponseWriter, r *http.Request, next http.Handler)
}

// MiddlewareFunc adapts an ordinary function to [Middleware].
type MiddlewareFunc func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Process calls f(w, r, next).
func (f MiddlewareFunc) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	f(w, r, next)
}

// Handler turns h into terminal middleware: it always serves the request
// itself and never delegates.
func Handler(h http.Handler) Middleware {
	return &handlerMiddleware{handler: h}
}

type handlerMiddleware struct {
	handler http.Handler
}

func (m *handlerMiddleware) Process(w http.ResponseWriter, r *http.Request, _ http.Handler) {
	m.handler.ServeHTTP(w, r)
}

// ServeHTTP lets terminal middleware be used wherever a handler is expected.
func (m *handlerMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// Decorator adapts a net/http style decorator, the func(http.Handler) http.Handler
// form used by most Go middleware libraries.
func Decorator(fn func(http.Handler) http.Handler) Middleware {
	return MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		fn(next).ServeHTTP(w, r)
	})
}

// DoublePass adapts a function receiving the writer, the request and next.
func DoublePass(fn func(w http.ResponseWriter, r *http.Request, next http.Handler)) Middleware {
	return MiddlewareFunc(fn)
}
