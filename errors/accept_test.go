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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		offers []string
		want   string
	}{
		{"simple json preference", "application/json", []string{"json", "xml", "html"}, "json"},
		{"higher quality wins", "text/html, application/json;q=0.8", []string{"json", "html"}, "html"},
		{"explicit qualities", "application/json;q=0.9, text/html;q=0.7", []string{"html", "json"}, "json"},
		{"full wildcard picks first offer", "*/*", []string{"json", "xml"}, "json"},
		{"type wildcard", "text/*", []string{"json", "html", "txt"}, "html"},
		{"empty header picks first offer", "", []string{"json", "xml"}, "json"},
		{"no match", "image/png", []string{"json", "html"}, ""},
		{"no offers", "application/json", nil, ""},
		{"full media types are returned as given", "application/xml", []string{"application/json", "application/xml"}, "application/xml"},
		{"specificity breaks ties", "*/*, application/xml", []string{"json", "xml"}, "xml"},
		{"q zero excludes", "application/json;q=0, */*", []string{"json", "html"}, "html"},
		{"parameters are ignored", "application/json; version=2", []string{"json"}, "json"},
		{"case insensitive", "Application/JSON", []string{"application/json"}, "application/json"},
		{"suffix match", "application/json", []string{"text/html", "application/problem+json"}, "application/problem+json"},
		{"malformed q treated as one", "application/json;q=abc", []string{"json"}, "json"},
		{"quoted q", `text/html;q="0.1", application/json`, []string{"html", "json"}, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Accepts(tt.header, tt.offers...))
		})
	}
}
