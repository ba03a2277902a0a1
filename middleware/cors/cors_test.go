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

package cors

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func run(opts []Option, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	}
	rec := httptest.NewRecorder()
	New(opts...).Process(rec, req, ok)
	return rec
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opts        []Option
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantMethods string
	}{
		{
			name:       "no origin",
			opts:       []Option{WithAllowAllOrigins(true)},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "denied by default",
			method:     http.MethodGet,
			origin:     "https://evil.test",
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin",
			opts:       []Option{WithAllowedOrigins("https://app.test")},
			method:     http.MethodGet,
			origin:     "https://app.test",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.test",
		},
		{
			name:       "wildcard",
			opts:       []Option{WithAllowAllOrigins(true)},
			method:     http.MethodGet,
			origin:     "https://any.test",
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:       "wildcard with credentials echoes origin",
			opts:       []Option{WithAllowAllOrigins(true), WithAllowCredentials(true)},
			method:     http.MethodGet,
			origin:     "https://any.test",
			wantStatus: http.StatusOK,
			wantOrigin: "https://any.test",
		},
		{
			name: "origin func",
			opts: []Option{WithAllowOriginFunc(func(o string) bool {
				return strings.HasSuffix(o, ".example.com")
			})},
			method:     http.MethodGet,
			origin:     "https://api.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://api.example.com",
		},
		{
			name:        "preflight",
			opts:        []Option{WithAllowedOrigins("https://app.test"), WithAllowedMethods("GET", "PUT")},
			method:      http.MethodOptions,
			origin:      "https://app.test",
			preflight:   true,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "https://app.test",
			wantMethods: "GET, PUT",
		},
		{
			name:       "plain options is not a preflight",
			opts:       []Option{WithAllowedOrigins("https://app.test")},
			method:     http.MethodOptions,
			origin:     "https://app.test",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := run(tt.opts, tt.method, tt.origin, tt.preflight)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	t.Parallel()

	rec := run([]Option{
		WithAllowedOrigins("https://app.test"),
		WithAllowedHeaders("X-Token"),
		WithExposedHeaders("X-Request-ID", "X-Total"),
		WithMaxAge(60),
		WithAllowCredentials(true),
	}, http.MethodOptions, "https://app.test", true)

	h := rec.Header()
	assert.Equal(t, "X-Token", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Request-ID, X-Total", h.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "60", h.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", h.Get("Vary"))
}
