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

package errorhandler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/template"
)

const (
	// DefaultTemplate renders error pages.
	DefaultTemplate = "error::error"

	// DefaultNotFoundTemplate renders 404 pages.
	DefaultNotFoundTemplate = "error::404"

	// DefaultLayout wraps both.
	DefaultLayout = "layout::default"

	defaultMessage = "An unexpected error occurred"
)

// GeneratorOption configures a ResponseGenerator.
type GeneratorOption func(*ResponseGenerator)

// WithDebug exposes the error and its stack in responses.
func WithDebug(debug bool) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.debug = debug
	}
}

// WithRenderer renders error pages through r.
func WithRenderer(r template.Renderer) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.renderer = r
	}
}

// WithTemplate overrides DefaultTemplate.
func WithTemplate(name string) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.template = name
	}
}

// WithLayout overrides DefaultLayout. An empty name renders without layout.
func WithLayout(name string) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.layout = name
	}
}

// WithFormatters enables machine-readable responses for clients that prefer
// one of the formatters' media types over text/html.
func WithFormatters(formatters ...apierrors.Formatter) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.formatters = append(g.formatters, formatters...)
	}
}

// ResponseGenerator writes the response for an unhandled error.
type ResponseGenerator struct {
	debug      bool
	renderer   template.Renderer
	template   string
	layout     string
	formatters []apierrors.Formatter
}

// NewResponseGenerator creates a generator.
func NewResponseGenerator(opts ...GeneratorOption) *ResponseGenerator {
	g := &ResponseGenerator{
		template: DefaultTemplate,
		layout:   DefaultLayout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Debug reports whether debug output is enabled.
func (g *ResponseGenerator) Debug() bool {
	return g.debug
}

// Status resolves the response status for err given the status set so far.
func (g *ResponseGenerator) Status(err error, current int) int {
	return apierrors.StatusCode(err, current)
}

// Generate writes the error response for err.
func (g *ResponseGenerator) Generate(w http.ResponseWriter, r *http.Request, err error) {
	status := g.Status(err, 0)

	if f := apierrors.Negotiate(r.Header.Get("Accept"), g.formatters...); f != nil {
		_ = apierrors.Write(w, f.Format(r, apierrors.WithStatus(err, status)))
		return
	}

	if g.renderer != nil {
		data := map[string]any{
			"status":  status,
			"reason":  http.StatusText(status),
			"request": r,
			"uri":     requestURI(r),
			"layout":  layoutParam(g.layout),
		}
		if g.debug {
			data["error"] = err
		}
		if renderTo(w, g.renderer, g.template, data, status) {
			return
		}
	}

	msg := defaultMessage
	if g.debug {
		msg += "; stack trace:\n\n" + stackTrace(err)
	}
	writePlain(w, status, msg)
}

func stackTrace(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%v\n\n%s", pe.Value, pe.Stack)
	}
	return fmt.Sprintf("%+v", err)
}

// layoutParam maps an empty layout to false, which disables the renderer's
// own default layout as well.
func layoutParam(layout string) any {
	if layout == "" {
		return false
	}
	return layout
}

func requestURI(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

// renderTo renders into a buffer so a template failure leaves w untouched.
func renderTo(w http.ResponseWriter, renderer template.Renderer, name string, data map[string]any, status int) bool {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return true
}

func writePlain(w http.ResponseWriter, status int, msg string) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
