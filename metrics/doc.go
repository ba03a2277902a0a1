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

// Package metrics records HTTP request metrics with OpenTelemetry.
//
// A Recorder owns a meter provider backed by a Prometheus, OTLP or stdout
// exporter, or by a caller-supplied provider:
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrometheus(),
//	    metrics.WithServiceName("conduit"),
//	)
//	defer recorder.Shutdown(context.Background())
//
//	app.Pipe(metrics.Middleware(recorder))
//	app.Get("/metrics", recorder.Handler(), "metrics")
//
// The middleware counts requests, records their duration and response size
// and tracks in-flight requests. Requests are labelled with the name of the
// matched route rather than the raw path, which keeps label cardinality
// bounded.
package metrics
