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

// Package tracing provides OpenTelemetry request tracing.
//
// A Tracer owns a tracer provider exporting to stdout, to an OTLP/HTTP
// collector, or nowhere (noop), plus the propagator used to continue traces
// from incoming headers:
//
//	tracer := tracing.MustNew(context.Background(),
//	    tracing.WithOTLP("http://collector:4318"),
//	    tracing.WithServiceName("conduit"),
//	)
//	defer tracer.Shutdown(context.Background())
//
//	app.Pipe(tracing.Middleware(tracer))
//
// Middleware instruments requests with otelhttp and, once routing is done,
// renames the server span to "METHOD route-name".
package tracing
