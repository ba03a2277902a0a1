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

package router

import (
	"context"
	"net/http"
	"sync"
)

type contextKey int

const (
	resultKey contextKey = iota
	forwardedMethodKey
	trackerKey
)

// WithResult returns a copy of ctx carrying result.
func WithResult(ctx context.Context, result *Result) context.Context {
	return context.WithValue(ctx, resultKey, result)
}

// ResultFromContext returns the routing result stored in ctx, or nil.
func ResultFromContext(ctx context.Context) *Result {
	result, _ := ctx.Value(resultKey).(*Result)
	return result
}

// ForwardedMethod returns the original method of a request that was
// re-dispatched under another method, such as HEAD served by a GET route.
func ForwardedMethod(ctx context.Context) string {
	m, _ := ctx.Value(forwardedMethodKey).(string)
	return m
}

func withForwardedMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, forwardedMethodKey, method)
}

// Param returns the matched route parameter name, falling back to the
// request path value.
func Param(r *http.Request, name string) string {
	if result := ResultFromContext(r.Context()); result != nil {
		if v, ok := result.Param(name); ok {
			return v
		}
	}
	return r.PathValue(name)
}

// withResult attaches result to a copy of r and exposes its parameters
// through Request.PathValue.
func withResult(r *http.Request, result *Result) *http.Request {
	recordResult(r.Context(), result)
	r = r.Clone(WithResult(r.Context(), result))
	for k, v := range result.params {
		r.SetPathValue(k, v)
	}
	return r
}

// Tracker receives the routing result of a request. Middlewares that run
// before routing, such as access logs and metrics, install one with Track and
// read the result after the rest of the pipeline returns.
type Tracker struct {
	mu     sync.Mutex
	result *Result
}

// Track installs a Tracker in the request context. A tracker already present
// is reused so every outer middleware observes the same result.
func Track(r *http.Request) (*http.Request, *Tracker) {
	if t, ok := r.Context().Value(trackerKey).(*Tracker); ok {
		return r, t
	}
	t := &Tracker{}
	return r.WithContext(context.WithValue(r.Context(), trackerKey, t)), t
}

// Result returns the last result recorded, or nil before routing.
func (t *Tracker) Result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// RouteName returns the matched route name, or "" when nothing matched.
func (t *Tracker) RouteName() string {
	if res := t.Result(); res != nil {
		return res.MatchedRouteName()
	}
	return ""
}

func (t *Tracker) record(result *Result) {
	t.mu.Lock()
	t.result = result
	t.mu.Unlock()
}

func recordResult(ctx context.Context, result *Result) {
	if t, ok := ctx.Value(trackerKey).(*Tracker); ok {
		t.record(result)
	}
}
