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

package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, opts []Option, header string) (seen string, resp *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(DefaultHeader, header)
	}
	resp = httptest.NewRecorder()
	New(opts...).Process(resp, req, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = Get(r)
	}))
	return seen, resp
}

func TestRequestID_Generated(t *testing.T) {
	t.Parallel()

	seen, resp := run(t, nil, "")
	id, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, seen, resp.Header().Get(DefaultHeader))
}

func TestRequestID_ULID(t *testing.T) {
	t.Parallel()

	first, resp := run(t, []Option{WithULID()}, "")
	require.Len(t, first, ulid.EncodedSize)
	_, err := ulid.ParseStrict(first)
	require.NoError(t, err)
	assert.Equal(t, first, resp.Header().Get(DefaultHeader))

	second, _ := run(t, []Option{WithULID()}, "")
	assert.Less(t, first, second)
}

func TestRequestID_ClientID(t *testing.T) {
	t.Parallel()

	seen, _ := run(t, nil, "client-123")
	assert.Equal(t, "client-123", seen)

	seen, _ = run(t, []Option{WithAllowClientID(false), WithGenerator(func() string { return "server" })}, "client-123")
	assert.Equal(t, "server", seen)

	seen, _ = run(t, []Option{WithGenerator(func() string { return "server" })}, strings.Repeat("x", 500))
	assert.Equal(t, "server", seen)
}

func TestRequestID_CustomHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr")
	resp := httptest.NewRecorder()
	New(WithHeader("X-Correlation-ID")).Process(resp, req, http.NotFoundHandler())
	assert.Equal(t, "corr", resp.Header().Get("X-Correlation-ID"))
	assert.Empty(t, resp.Header().Get(DefaultHeader))
}
