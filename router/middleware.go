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
	"strings"

	"rivaas.dev/conduit/pipeline"
)

// Responder writes responses produced by the route middlewares themselves.
// The Allow header is already set when it is called.
type Responder func(w http.ResponseWriter, r *http.Request, status int)

func emptyResponse(w http.ResponseWriter, _ *http.Request, status int) {
	w.WriteHeader(status)
}

// RouteMiddleware matches requests and stores the Result in the request
// context for the middlewares that follow.
type RouteMiddleware struct {
	router Router
}

// Middleware creates the routing middleware for rt.
func Middleware(rt Router) *RouteMiddleware {
	return &RouteMiddleware{router: rt}
}

// Router returns the backend used for matching.
func (m *RouteMiddleware) Router() Router {
	return m.router
}

// Process matches r and always delegates to next. Matched parameters are
// also available through Request.PathValue.
func (m *RouteMiddleware) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	next.ServeHTTP(w, withResult(r, m.router.Match(r)))
}

// DispatchMiddleware processes the matched route. Requests without a result,
// or with a failed one, continue to next.
func DispatchMiddleware() pipeline.Middleware {
	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		result := ResultFromContext(r.Context())
		if result == nil {
			next.ServeHTTP(w, r)
			return
		}
		result.Process(w, r, next)
	})
}

// MethodNotAllowedMiddleware answers method failures with 405 and an Allow
// header. A nil responder writes an empty body.
func MethodNotAllowedMiddleware(responder Responder) pipeline.Middleware {
	if responder == nil {
		responder = emptyResponse
	}
	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		result := ResultFromContext(r.Context())
		if result == nil || !result.IsMethodFailure() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(result.AllowedMethods(), ","))
		responder(w, r, http.StatusMethodNotAllowed)
	})
}

// ImplicitOptionsMiddleware answers OPTIONS requests for paths that exist
// but declare no OPTIONS route, with 200 and the Allow header. A nil
// responder writes an empty body.
func ImplicitOptionsMiddleware(responder Responder) pipeline.Middleware {
	if responder == nil {
		responder = emptyResponse
	}
	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		result := ResultFromContext(r.Context())
		if result == nil || !result.IsMethodFailure() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(result.AllowedMethods(), ","))
		responder(w, r, http.StatusOK)
	})
}

// ImplicitHeadMiddleware serves HEAD requests through the GET route of the
// path when no HEAD route matched.
//
// The request continues as GET with the GET result in its context and
// ForwardedMethod reporting HEAD. Headers and status written downstream are
// kept; the body is discarded.
func ImplicitHeadMiddleware(rt Router) pipeline.Middleware {
	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		result := ResultFromContext(r.Context())
		if result == nil || result.MatchedRoute() != nil {
			next.ServeHTTP(w, r)
			return
		}

		get := r.Clone(withForwardedMethod(r.Context(), http.MethodHead))
		get.Method = http.MethodGet
		matched := rt.Match(get)
		if matched.IsFailure() {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(&headWriter{ResponseWriter: w}, withResult(get, matched))
	})
}

// headWriter drops the response body.
type headWriter struct {
	http.ResponseWriter
}

func (w *headWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func (w *headWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
