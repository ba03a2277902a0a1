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
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/metrics"
)

func TestPrintRoutes(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, WithEnvironment(EnvironmentProduction))
	_, err := a.Get("/users/{id}", hello, "users.show")
	require.NoError(t, err)
	_, err = a.Route("/users", hello, []string{http.MethodGet, http.MethodPost}, "users")
	require.NoError(t, err)
	_, err = a.Any("/files", hello, "files")
	require.NoError(t, err)

	var buf bytes.Buffer
	a.PrintRoutes(&buf)
	out := buf.String()

	for _, want := range []string{"Methods", "Path", "Name", "/users/{id}", "users.show", "GET,POST", "/files", "*"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintRoutes_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newTestApp(t).PrintRoutes(&buf)
	assert.Equal(t, "No routes registered\n", buf.String())
}

func TestStartupBanner(t *testing.T) {
	t.Parallel()

	recorder := metrics.MustNew(metrics.WithPrometheus())
	var buf bytes.Buffer
	a, err := New(
		WithLogger(quietLogger()),
		WithServiceName("banner"),
		WithServiceVersion("3.2.1"),
		WithEnvironment(EnvironmentProduction),
		WithMetrics(recorder),
		WithBannerOutput(&buf),
	)
	require.NoError(t, err)

	a.printStartupBanner(":8080")
	out := buf.String()

	assert.Contains(t, out, "3.2.1")
	assert.Contains(t, out, "http://0.0.0.0:8080")
	assert.Contains(t, out, string(metrics.PrometheusProvider))
	assert.Contains(t, out, "Disabled")
	assert.NotContains(t, out, "/metrics", "production hides the route table")
	assert.NotContains(t, out, "\x1b[")
}

func TestStartupBanner_Discard(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	require.Equal(t, io.Discard, a.settings.banner)
	assert.NotPanics(t, func() { a.printStartupBanner(":0") })
}
