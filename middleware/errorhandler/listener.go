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

package errorhandler

import (
	"log/slog"
	"net/http"

	"rivaas.dev/conduit/middleware"
)

// LogListener logs caught errors: server errors at error level, client
// errors at warn level.
func LogListener(logger *slog.Logger) Listener {
	return func(err error, r *http.Request, status int) {
		attrs := []any{
			"error", err.Error(),
			"status", status,
			"method", r.Method,
			"path", r.URL.Path,
		}
		if id := middleware.RequestID(r.Context()); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		if pe, ok := err.(*PanicError); ok { //nolint:errorlint // only direct panics carry a stack
			attrs = append(attrs, "stack", string(pe.Stack))
		}

		ctx := r.Context()
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed", attrs...)
			return
		}
		logger.WarnContext(ctx, "request failed", attrs...)
	}
}
