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

package errors

import (
	"encoding/json"
	"net/http"
)

// Write sends resp to w: extra headers first, then Content-Type, the status
// line and the JSON-encoded body.
func Write(w http.ResponseWriter, resp Response) error {
	h := w.Header()
	for k, values := range resp.Headers {
		for _, v := range values {
			h.Add(k, v)
		}
	}
	if resp.ContentType != "" {
		h.Set("Content-Type", resp.ContentType)
	}
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(resp.Body)
}

// Negotiate picks the formatter whose media type the Accept header prefers
// over text/html. It returns nil when HTML (or nothing) is preferred, when
// accept is empty, or when no formatters are given.
func Negotiate(accept string, formatters ...Formatter) Formatter {
	if accept == "" || len(formatters) == 0 {
		return nil
	}

	offers := make([]string, 0, len(formatters)+1)
	offers = append(offers, "text/html")
	for _, f := range formatters {
		offers = append(offers, f.MediaType())
	}

	best := Accepts(accept, offers...)
	if best == "" || best == "text/html" {
		return nil
	}
	for _, f := range formatters {
		if f.MediaType() == best {
			return f
		}
	}

	return nil
}
