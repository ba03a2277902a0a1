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

// Package app assembles a conduit application: a middleware pipeline, a
// router backend, error handling and an HTTP server with graceful
// shutdown.
//
// # Overview
//
// An App owns:
//
//   - a pipeline.Pipe, filled with Pipe, PipePath and PipeWithPriority
//   - a router.Collector, filled with Route, Get, Post and friends
//   - a pipeline.Factory resolving middleware specs, including service
//     names looked up in a container.Container
//   - an errorhandler.ErrorHandler wrapping the pipeline, and a
//     not-found handler behind it
//
// The markers RoutingMiddleware and DispatchMiddleware place routing and
// dispatch in the pipeline. When nothing was piped and routes exist, Build
// pipes both.
//
// # Configuration
//
// Config mirrors a configuration document with service, server,
// middleware_pipeline and routes sections. DecodeConfig reads it from a
// loaded config.Config; NewFromConfig builds the App and injects the
// pipeline and routes.
//
//	c := config.MustNew(config.WithFile("conduit.yaml"), config.WithEnv("CONDUIT_"))
//	if err := c.Load(ctx); err != nil {
//		return err
//	}
//	cfg, err := app.DecodeConfig(c)
//	if err != nil {
//		return err
//	}
//	a, err := app.NewFromConfig(cfg, app.WithContainer(services))
//	if err != nil {
//		return err
//	}
//	return a.Start(ctx, cfg.Server.Addr)
//
// Invalid configuration returns a *ValidationError listing every
// *ConfigError found.
package app
