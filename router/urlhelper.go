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
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// URLHelper generates URIs from inside request handlers.
//
// An empty route name means the route matched for the current request. When
// generating the current route, its matched parameters are reused unless the
// WithoutReuse option is given.
type URLHelper struct {
	router   Router
	basePath string
}

// NewURLHelper creates a helper backed by rt.
func NewURLHelper(rt Router) *URLHelper {
	return &URLHelper{router: rt}
}

// SetBasePath sets a prefix prepended to every generated URI, for
// applications mounted below the root.
func (h *URLHelper) SetBasePath(base string) {
	h.basePath = "/" + strings.Trim(base, "/")
	if h.basePath == "/" {
		h.basePath = ""
	}
}

// Generate builds the URI of the named route.
func (h *URLHelper) Generate(r *http.Request, name string, params map[string]string, opts ...URIOption) (string, error) {
	o := NewURIOptions(opts...)

	var result *Result
	if r != nil {
		result = ResultFromContext(r.Context())
	}

	if name == "" {
		if result == nil || result.IsFailure() {
			return "", fmt.Errorf("%w: no route matched the current request", ErrRouteNotFound)
		}
		name = result.MatchedRouteName()
	}

	if o.ReuseParams && result != nil && result.IsSuccess() && result.MatchedRouteName() == name {
		merged := result.MatchedParams()
		maps.Copy(merged, params)
		params = merged
	}

	uri, err := h.router.GenerateURI(name, params, opts...)
	if err != nil {
		return "", err
	}
	return h.basePath + uri, nil
}
