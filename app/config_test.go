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

package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/config"
	"rivaas.dev/conduit/config/codec"
	"rivaas.dev/conduit/container"
	"rivaas.dev/conduit/router"
)

const appYAML = `
service:
  name: orders
  version: 2.1.0
  environment: production
server:
  read_timeout: 3s
  write_timeout: 6s
middleware_pipeline:
  - middleware: stamp
    priority: 1
  - middleware: [conduit.routing]
    priority: 100
  - middleware: conduit.dispatch
    priority: -10
routes:
  - path: /orders/{id}
    middleware: show_order
    allowed_methods: [GET]
    name: orders.show
    options:
      cache: true
  - path: /ping
    middleware: [stamp, pong]
`

func loadConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	c, err := config.New(config.WithContent([]byte(doc), codec.TypeYAML))
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func configServices() *container.Map {
	return container.New().
		Set("stamp", func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			w.Header().Add("X-Stamp", "1")
			next.ServeHTTP(w, r)
		}).
		Set("show_order", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("order " + r.PathValue("id")))
		}).
		Set("pong", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	cfg, err := DecodeConfig(loadConfig(t, appYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Service.Name)
	assert.Equal(t, "production", cfg.Service.Environment)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	require.Len(t, cfg.Pipeline, 3)
	require.NotNil(t, cfg.Pipeline[1].Priority)
	assert.Equal(t, 100, *cfg.Pipeline[1].Priority)
	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, []string{"GET"}, cfg.Routes[0].AllowedMethods)
	assert.Nil(t, cfg.Routes[1].AllowedMethods)
	assert.Equal(t, true, cfg.Routes[0].Options["cache"])
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg, err := DecodeConfig(loadConfig(t, appYAML))
	require.NoError(t, err)

	a, err := NewFromConfig(cfg, WithContainer(configServices()), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, "orders", a.ServiceName())
	assert.Equal(t, EnvironmentProduction, a.Environment())

	rec := do(a, http.MethodGet, "/orders/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order 42", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Stamp"))

	rec = do(a, http.MethodDelete, "/orders/42")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))

	rec = do(a, http.MethodPost, "/ping")
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"1", "1"}, rec.Header().Values("X-Stamp"))

	routes := a.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "orders.show", routes[0].Name())
	assert.Equal(t, map[string]any{"cache": true}, routes[0].Options())
	assert.True(t, routes[1].AllowsAnyMethod())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	doc := `
service:
  environment: staging
middleware_pipeline:
  - path: admin
routes:
  - middleware: x
`
	_, err := DecodeConfig(loadConfig(t, doc))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, e := range verr.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"service.environment",
		"middleware_pipeline[0].middleware",
		"middleware_pipeline[0].path",
		"routes[0].path",
	}, fields)
}

func TestConfig_ValidateStructRules(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server: ServerConfig{ReadTimeout: 10 * time.Second, WriteTimeout: time.Second},
		Routes: []RouteEntry{{Path: "/x", Middleware: "x", AllowedMethods: []string{}}},
	}

	var verr *ValidationError
	require.ErrorAs(t, cfg.Validate(), &verr)
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, "routes[0].allowed_methods", verr.Errors[0].Field)
	assert.Equal(t, "server.read_timeout", verr.Errors[1].Field)

	_, err := NewFromConfig(cfg)
	require.ErrorAs(t, err, &verr)
}

func TestFromConfig_DuplicateRoutes(t *testing.T) {
	t.Parallel()

	cfg := &Config{Routes: []RouteEntry{
		{Path: "/a", Middleware: "pong", Name: "a"},
		{Path: "/b", Middleware: "pong", Name: "a"},
	}}

	_, err := NewFromConfig(cfg, WithContainer(configServices()), WithLogger(quietLogger()))
	var dup *router.DuplicateRouteError
	require.ErrorAs(t, err, &dup)
	assert.Contains(t, err.Error(), "routes[1]")
}

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Service: ServiceConfig{Name: "svc", Version: "0.1.0"},
		Server:  ServerConfig{ShutdownTimeout: 2 * time.Second, MaxHeaderBytes: 4096},
		Debug:   true,
	}
	a, err := New(append(cfg.Options(), WithLogger(quietLogger()))...)
	require.NoError(t, err)

	assert.Equal(t, "svc", a.ServiceName())
	assert.Equal(t, "0.1.0", a.settings.serviceVersion)
	assert.True(t, a.settings.debug)
	assert.Equal(t, 2*time.Second, a.settings.server.shutdownTimeout)
	assert.Equal(t, 4096, a.settings.server.maxHeaderBytes)
	assert.Equal(t, DefaultReadTimeout, a.settings.server.readTimeout)
}
