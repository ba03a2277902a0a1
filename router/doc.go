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

// Package router provides the routing layer of conduit: the Route and Result
// model, the Router contract implemented by the backend sub-packages, route
// collection with duplicate detection, and the middlewares that match and
// dispatch requests inside a pipeline.
//
// A typical pipeline built from this package looks like:
//
//	rt := chirouter.New()
//	routes := router.NewCollector(rt)
//	routes.Get("/users/{id}", pipeline.Handler(showUser), "user")
//
//	pipe := pipeline.NewPipe(
//		router.Middleware(rt),
//		router.ImplicitHeadMiddleware(rt),
//		router.ImplicitOptionsMiddleware(nil),
//		router.MethodNotAllowedMiddleware(nil),
//		router.DispatchMiddleware(),
//	)
//
// Router backends match on the path only. Method negotiation happens in
// Index, so every backend reports 405 and implicit HEAD/OPTIONS the same way.
package router
