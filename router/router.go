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
	"net/http"
	"net/url"
)

// Router is implemented by routing backends.
type Router interface {
	// AddRoute registers a route. Backends reject patterns their library
	// cannot parse.
	AddRoute(route *Route) error

	// Match matches the request path and method. It never returns nil.
	Match(r *http.Request) *Result

	// GenerateURI builds the path of the named route.
	GenerateURI(name string, params map[string]string, opts ...URIOption) (string, error)
}

// URIOptions holds the settings applied by URIOption values.
type URIOptions struct {
	Query       url.Values
	Fragment    string
	ReuseParams bool
}

// URIOption configures URI generation.
type URIOption func(*URIOptions)

// WithQuery appends a query string to the generated URI.
func WithQuery(q url.Values) URIOption {
	return func(o *URIOptions) {
		o.Query = q
	}
}

// WithFragment appends a fragment to the generated URI.
func WithFragment(fragment string) URIOption {
	return func(o *URIOptions) {
		o.Fragment = fragment
	}
}

// WithoutReuse stops URLHelper from reusing the current route parameters.
// Backends ignore it.
func WithoutReuse() URIOption {
	return func(o *URIOptions) {
		o.ReuseParams = false
	}
}

// NewURIOptions applies opts over the defaults.
func NewURIOptions(opts ...URIOption) URIOptions {
	o := URIOptions{ReuseParams: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Apply appends the query and fragment to path.
func (o URIOptions) Apply(path string) string {
	if len(o.Query) > 0 {
		path += "?" + o.Query.Encode()
	}
	if o.Fragment != "" {
		path += "#" + url.PathEscape(o.Fragment)
	}
	return path
}
