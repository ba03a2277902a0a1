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

// Package logging configures the structured logger used across conduit.
//
// It builds a log/slog logger with a JSON, text or console handler, a
// dynamically adjustable level and service metadata attached to every entry:
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("conduit"),
//	    logging.WithDebugLevel(),
//	)
//	logger.Info("listening", "addr", ":8080")
//
// Request-scoped loggers travel in the context: WithContext stores one and
// FromContext returns it enriched with the request ID and the OpenTelemetry
// trace and span IDs found in the context.
//
// Attributes named password, token, secret, api_key or authorization are
// redacted by every handler.
package logging
