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
	"fmt"
	"net/http"

	"rivaas.dev/conduit/template"
)

// NotFoundHandler answers requests no route or middleware handled.
type NotFoundHandler struct {
	renderer template.Renderer
	template string
	layout   string
}

// NewNotFoundHandler creates the handler. A nil renderer produces plain
// text responses.
func NewNotFoundHandler(renderer template.Renderer) *NotFoundHandler {
	return &NotFoundHandler{
		renderer: renderer,
		template: DefaultNotFoundTemplate,
		layout:   DefaultLayout,
	}
}

// SetTemplate changes the template and layout names.
func (h *NotFoundHandler) SetTemplate(name, layout string) {
	h.template = name
	h.layout = layout
}

func (h *NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.renderer != nil {
		data := map[string]any{
			"request": r,
			"layout":  layoutParam(h.layout),
		}
		if renderTo(w, h.renderer, h.template, data, http.StatusNotFound) {
			return
		}
	}
	writePlain(w, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, requestURI(r)))
}
