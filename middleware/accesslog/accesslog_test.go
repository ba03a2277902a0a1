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

package accesslog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/middleware/requestid"
	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
	"rivaas.dev/conduit/router/chirouter"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func routedPipe(t *testing.T, mw pipeline.Middleware) *pipeline.Pipe {
	t.Helper()

	collector := router.NewCollector(chirouter.New())
	_, err := collector.Get("/users/{id}", pipeline.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("user"))
	})), "user")
	require.NoError(t, err)

	return pipeline.NewPipe(
		mw,
		requestid.New(requestid.WithGenerator(func() string { return "req-1" })),
		router.Middleware(collector.Router()),
		router.DispatchMiddleware(),
	)
}

func TestAccessLog_RouteAndStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := routedPipe(t, New(WithLogger(newLogger(&buf))))

	resp := httptest.NewRecorder()
	p.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/7", nil))

	logs := entries(t, &buf)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/users/7", entry["path"])
	assert.InDelta(t, 200, entry["status"], 0)
	assert.InDelta(t, 4, entry["bytes_sent"], 0)
	assert.Equal(t, "user", entry["route"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestAccessLog_NotFoundIsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := routedPipe(t, New(WithLogger(newLogger(&buf))))
	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	logs := entries(t, &buf)
	require.Len(t, logs, 1)
	assert.Equal(t, "WARN", logs[0]["level"])
	assert.InDelta(t, 404, logs[0]["status"], 0)
	assert.NotContains(t, logs[0], "route")
}

func TestAccessLog_Filters(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	fail := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		name    string
		opts    []Option
		path    string
		handler http.Handler
		logged  bool
	}{
		{"default", nil, "/a", ok, true},
		{"excluded path", []Option{WithExcludePaths("/health")}, "/health", ok, false},
		{"excluded prefix", []Option{WithExcludePrefixes("/metrics")}, "/metrics/x", ok, false},
		{"errors only skips success", []Option{WithErrorsOnly()}, "/a", ok, false},
		{"errors only keeps failure", []Option{WithErrorsOnly()}, "/a", fail, true},
		{"zero sample rate keeps errors", []Option{WithSampleRate(0)}, "/a", fail, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			opts := append([]Option{WithLogger(newLogger(&buf))}, tt.opts...)
			New(opts...).Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil), tt.handler)
			assert.Equal(t, tt.logged, buf.Len() > 0)
		})
	}
}

func TestAccessLog_SlowRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slow := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	New(WithLogger(newLogger(&buf)), WithErrorsOnly(), WithSlowThreshold(time.Millisecond)).
		Process(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), slow)

	logs := entries(t, &buf)
	require.Len(t, logs, 1)
	assert.Equal(t, "WARN", logs[0]["level"])
	assert.Equal(t, true, logs[0]["slow"])
}

func TestSampleByHash(t *testing.T) {
	t.Parallel()

	assert.True(t, sampleByHash("", 0))
	assert.False(t, sampleByHash("abc", 0))
	assert.True(t, sampleByHash("abc", 1))
	assert.True(t, sampleByHash("abc", 1.5))
	assert.False(t, sampleByHash("abc", -1))
	assert.Equal(t, sampleByHash("abc", 0.5), sampleByHash("abc", 0.5))

	kept := 0
	for i := range 1000 {
		if sampleByHash(strconv.Itoa(i), 0.5) {
			kept++
		}
	}
	assert.InDelta(t, 500, kept, 100)
}
