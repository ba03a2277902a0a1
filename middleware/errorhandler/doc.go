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

// Package errorhandler turns errors and panics raised down the pipeline into
// HTTP responses.
//
// ErrorHandler is meant to wrap the whole pipeline. Handlers report errors
// with Report or by returning them from a HandlerFunc; panics are recovered.
// Once the pipeline returns, attached listeners are notified and, unless the
// response has already started, a ResponseGenerator writes the error page:
// a rendered template, a machine-readable body chosen by the Accept header,
// or plain text.
//
// NotFoundHandler is the matching final handler for requests nothing
// answered.
package errorhandler
