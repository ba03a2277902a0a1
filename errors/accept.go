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
	"strconv"
	"strings"
)

// acceptSpec is one parsed media range of an Accept header.
type acceptSpec struct {
	typ, subtype string
	quality      float64
}

// shortTypes maps short names accepted as offers to full media types.
var shortTypes = map[string]string{
	"html":    "text/html",
	"json":    "application/json",
	"problem": "application/problem+json",
	"jsonapi": "application/vnd.api+json",
	"xml":     "application/xml",
	"text":    "text/plain",
	"txt":     "text/plain",
}

// Accepts returns the offer that best satisfies the Accept header value, or
// "" when none is acceptable.
//
// Offers may be full media types ("application/json") or short names
// ("json"). The offer with the highest quality wins; ties go to the more
// specific media range and then to the earlier offer. An empty header accepts
// the first offer.
//
//	Accepts("text/html, application/json;q=0.8", "json", "html") // "html"
//	Accepts("*/*", "json", "xml")                                // "json"
//
// A "+json" structured syntax suffix satisfies an application/json range, so
// application/problem+json is acceptable to clients asking for JSON.
func Accepts(header string, offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	specs := parseAccept(header)
	if len(specs) == 0 {
		return offers[0]
	}

	best := -1
	bestQuality := 0.0
	bestSpecificity := 0
	for i, offer := range offers {
		typ, subtype := splitMediaType(normalizeMediaType(offer))
		quality, specificity := 0.0, 0
		for _, spec := range specs {
			s := matchMediaType(typ, subtype, spec)
			if s > specificity {
				quality, specificity = spec.quality, s
			}
		}
		if specificity == 0 || quality <= 0 {
			continue
		}
		if best < 0 || quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
			best, bestQuality, bestSpecificity = i, quality, specificity
		}
	}

	if best < 0 {
		return ""
	}
	return offers[best]
}

// parseAccept splits a header into media ranges. Malformed q values count as 1.
func parseAccept(header string) []acceptSpec {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var specs []acceptSpec
	for part := range strings.SplitSeq(header, ",") {
		value, params, _ := strings.Cut(part, ";")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		spec := acceptSpec{quality: 1}
		spec.typ, spec.subtype = splitMediaType(value)
		for param := range strings.SplitSeq(params, ";") {
			key, val, ok := strings.Cut(param, "=")
			if !ok || strings.TrimSpace(key) != "q" {
				continue
			}
			val = strings.Trim(strings.TrimSpace(val), `"`)
			if q, err := strconv.ParseFloat(val, 64); err == nil && q >= 0 && q <= 1 {
				spec.quality = q
			}
		}
		specs = append(specs, spec)
	}

	return specs
}

// matchMediaType reports how specifically spec matches the offer:
// 4 exact, 3 structured suffix, 2 subtype wildcard, 1 full wildcard, 0 none.
func matchMediaType(typ, subtype string, spec acceptSpec) int {
	switch {
	case spec.typ == "*" && spec.subtype == "*":
		return 1
	case spec.typ != typ:
		return 0
	case spec.subtype == "*":
		return 2
	case spec.subtype == subtype:
		return 4
	case strings.HasSuffix(subtype, "+"+spec.subtype):
		return 3
	}
	return 0
}

func splitMediaType(mediaType string) (string, string) {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	typ, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return typ, "*"
	}
	return typ, subtype
}

func normalizeMediaType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if full, ok := shortTypes[mediaType]; ok {
		return full
	}
	return mediaType
}
