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

package template

import (
	"errors"
	"io"
	"io/fs"
)

// TemplateAll is the template name whose default parameters apply to every
// template.
const TemplateAll = "*"

// Separator splits a namespace from a template name.
const Separator = "::"

// DefaultNamespace holds templates referenced without a namespace.
const DefaultNamespace = ""

var (
	// ErrTemplateNotFound indicates that no search path holds the template.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidNamespace indicates an unknown or malformed namespace.
	ErrInvalidNamespace = errors.New("invalid template namespace")
)

// Path is a template search location.
type Path struct {
	Namespace string
	Path      string
}

// Renderer renders named templates.
type Renderer interface {
	// Render writes the template to w.
	Render(w io.Writer, name string, params map[string]any) error

	// AddPath adds a directory to the search path of namespace.
	AddPath(path, namespace string) error

	// AddFS adds a file system to the search path of namespace.
	AddFS(fsys fs.FS, namespace string) error

	// Paths lists the search locations.
	Paths() []Path

	// AddDefaultParam sets a parameter applied when rendering templateName,
	// or every template when templateName is TemplateAll.
	AddDefaultParam(templateName, param string, value any)
}
