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

// Package pipeline provides the middleware contract used throughout conduit,
// an ordered middleware pipe, path segregation, a stable priority queue and
// the factory that normalizes the many shapes middleware comes in.
//
// # Middleware
//
// A [Middleware] receives the request together with the handler that
// continues the pipeline:
//
//	type Middleware interface {
//	    Process(w http.ResponseWriter, r *http.Request, next http.Handler)
//	}
//
// Calling next.ServeHTTP delegates to the remainder of the pipeline; not
// calling it short-circuits the pipeline.
//
// # Pipes
//
// A [Pipe] runs middleware in the order it was piped:
//
//	p := pipeline.NewPipe()
//	p.Pipe(requestID, accessLog)
//	p.Pipe(pipeline.Path("/api", apiAuth))
//	p.Pipe(pipeline.Handler(app))
//	http.ListenAndServe(":8080", p)
//
// # Preparing middleware
//
// [Factory.Prepare] accepts middleware in any supported form and returns a
// [Middleware]:
//
//   - a [Middleware] (returned unchanged)
//   - an [http.Handler] or func(http.ResponseWriter, *http.Request)
//   - a decorator, func(http.Handler) http.Handler
//   - a double-pass func(http.ResponseWriter, *http.Request, http.Handler)
//   - a service name resolved lazily from a [container.Container]
//   - a slice of any of the above, which becomes a nested [Pipe]
package pipeline
