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

package pipeline

import (
	"net/http"
	"strings"
)

// Path segregates mw to requests whose path is prefix or lies below it.
//
// Matching is case-insensitive and honors segment boundaries: "/api" matches
// "/api" and "/API/users" but not "/apiary". The prefix is stripped before mw
// runs, and restored on the request handed to next. A prefix of "" or "/"
// matches everything, in which case mw is returned unchanged.
func Path(prefix string, mw Middleware) Middleware {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return mw
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	return &pathMiddleware{prefix: prefix, middleware: mw}
}

type pathMiddleware struct {
	prefix     string
	middleware Middleware
}

func (m *pathMiddleware) Process(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path
	if !hasPathPrefix(path, m.prefix) {
		next.ServeHTTP(w, r)
		return
	}

	stripped := path[len(m.prefix):]
	if stripped == "" {
		stripped = "/"
	}

	m.middleware.Process(w, withPath(r, stripped, ""), http.HandlerFunc(func(w http.ResponseWriter, inner *http.Request) {
		next.ServeHTTP(w, withPath(inner, path, r.URL.RawPath))
	}))
}

// Prefix returns the normalized prefix.
func (m *pathMiddleware) Prefix() string {
	return m.prefix
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
		return false
	}

	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// withPath returns a shallow copy of r with a different URL path, the same
// way http.StripPrefix does.
func withPath(r *http.Request, path, rawPath string) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	u.Path = path
	u.RawPath = rawPath
	r2.URL = &u

	return r2
}
