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

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"rivaas.dev/conduit/container"
	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/logging"
	"rivaas.dev/conduit/middleware/bodylimit"
	"rivaas.dev/conduit/middleware/compression"
	"rivaas.dev/conduit/middleware/cors"
	"rivaas.dev/conduit/middleware/errorhandler"
)

var errEmptyBody = errors.New("request body is empty")

// services registers the middleware and handlers the configuration refers to
// by name.
func services(logger *logging.Logger) *container.Map {
	return container.New().
		Set("logger", requestLogger(logger)).
		Set("cors", cors.New(cors.WithAllowAllOrigins(true), cors.WithExposedHeaders("X-Request-ID"))).
		Set("bodylimit", bodylimit.New(bodylimit.WithLimit(64<<10))).
		Set("compression", compression.New(compression.WithMinSize(512), compression.WithLogger(logger.Logger()))).
		Set("home", http.HandlerFunc(home)).
		Set("hello", http.HandlerFunc(hello)).
		Set("time", http.HandlerFunc(now)).
		Set("echo", errorhandler.HandlerFunc(echo)).
		Set("teapot", errorhandler.HandlerFunc(teapot))
}

// requestLogger stores the application logger in the request context.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithContext(r.Context(), logger.Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "conduit is running\n")
}

func hello(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		name = "world"
	}
	logging.FromContext(r.Context()).DebugContext(r.Context(), "greeting", "name", name)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello, "+name+"!\n")
}

func now(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"time": time.Now().UTC().Format(time.RFC3339)})
}

func echo(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var typed apierrors.ErrorType
		if !errors.As(err, &typed) {
			err = apierrors.WithStatus(err, http.StatusBadRequest)
		}
		return err
	}
	if len(body) == 0 {
		return apierrors.WithStatus(errEmptyBody, http.StatusBadRequest)
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, err = w.Write(body)
	return err
}

func teapot(http.ResponseWriter, *http.Request) error {
	return apierrors.WithStatus(errors.New("I refuse to brew coffee"), http.StatusTeapot)
}
