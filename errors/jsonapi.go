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
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// JSONAPI formats errors per https://jsonapi.org/format/#errors.
//
// When the error implements ErrorDetails and its details encode to a JSON
// array of objects, each object becomes one error entry. The members "path",
// "code", "message" and "meta" are mapped to source.pointer, code, detail and
// meta.
type JSONAPI struct {
	// StatusResolver determines the HTTP status from an error.
	// If nil, StatusCode is used.
	StatusResolver func(err error) int
}

type jsonAPIError struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Source *jsonAPISource `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type jsonAPISource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

type jsonAPIDocument struct {
	Errors []jsonAPIError `json:"errors"`
}

// MediaType implements Formatter.
func (f *JSONAPI) MediaType() string {
	return "application/vnd.api+json"
}

// Format converts an error into a JSON:API error document.
func (f *JSONAPI) Format(_ *http.Request, err error) Response {
	status := resolveStatus(f.StatusResolver, err)
	base := jsonAPIError{
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
		Detail: err.Error(),
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		base.Code = coded.Code()
	}

	var entries []jsonAPIError
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		details := detailed.Details()
		entries = fieldEntries(base, details)
		if len(entries) == 0 {
			base.Meta = map[string]any{"details": details}
		}
	}
	if len(entries) == 0 {
		base.ID = newErrorID()
		entries = []jsonAPIError{base}
	}

	return Response{
		Status:      status,
		ContentType: "application/vnd.api+json; charset=utf-8",
		Body:        jsonAPIDocument{Errors: entries},
	}
}

// fieldEntries expands details into one entry per field violation. Details
// are normalized through JSON so any struct with the expected tags works.
func fieldEntries(base jsonAPIError, details any) []jsonAPIError {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	var fields []map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	entries := make([]jsonAPIError, 0, len(fields))
	for _, field := range fields {
		e := base
		e.ID = newErrorID()
		if path, ok := field["path"].(string); ok && path != "" {
			e.Source = &jsonAPISource{Pointer: pathToPointer(path)}
		}
		if code, ok := field["code"].(string); ok && code != "" {
			e.Code = code
		}
		if msg, ok := field["message"].(string); ok && msg != "" {
			e.Detail = msg
		}
		if meta, ok := field["meta"].(map[string]any); ok && len(meta) > 0 {
			e.Meta = meta
		}
		entries = append(entries, e)
	}

	return entries
}

// pathToPointer converts "items.0.price" to "/data/attributes/items/0/price".
func pathToPointer(path string) string {
	if path == "" {
		return ""
	}
	return "/data/attributes/" + strings.ReplaceAll(path, ".", "/")
}
