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
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
)

// Option configures an HTMLRenderer.
type Option func(*HTMLRenderer)

// WithExtension sets the file extension appended to template names that
// have none. The default is ".html".
func WithExtension(ext string) Option {
	return func(r *HTMLRenderer) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.ext = ext
	}
}

// WithLayout sets the layout applied when the render parameters do not
// choose one.
func WithLayout(name string) Option {
	return func(r *HTMLRenderer) {
		r.layout = name
	}
}

// WithFuncs adds functions available to every template.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *HTMLRenderer) {
		maps.Copy(r.funcs, funcs)
	}
}

// WithoutCache re-parses templates on every render, for development.
func WithoutCache() Option {
	return func(r *HTMLRenderer) {
		r.cache = nil
	}
}

type source struct {
	fsys fs.FS
	path string
}

// HTMLRenderer is a Renderer built on html/template.
type HTMLRenderer struct {
	ext    string
	layout string
	funcs  template.FuncMap

	mu       sync.RWMutex
	sources  map[string][]source
	order    []Path
	defaults map[string]map[string]any
	cache    map[string]*template.Template
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates a renderer without search paths.
func NewHTMLRenderer(opts ...Option) *HTMLRenderer {
	r := &HTMLRenderer{
		ext:      ".html",
		funcs:    template.FuncMap{},
		sources:  make(map[string][]source),
		defaults: make(map[string]map[string]any),
		cache:    make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddPath adds a directory to namespace. The directory must exist.
func (r *HTMLRenderer) AddPath(dir, namespace string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("template path %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template path %q is not a directory", dir)
	}
	return r.add(os.DirFS(dir), dir, namespace)
}

// AddFS adds a file system to namespace.
func (r *HTMLRenderer) AddFS(fsys fs.FS, namespace string) error {
	return r.add(fsys, fmt.Sprintf("fs:%T", fsys), namespace)
}

func (r *HTMLRenderer) add(fsys fs.FS, label, namespace string) error {
	if strings.Contains(namespace, Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[namespace] = append(r.sources[namespace], source{fsys: fsys, path: label})
	r.order = append(r.order, Path{Namespace: namespace, Path: label})
	if r.cache != nil {
		clear(r.cache)
	}
	return nil
}

// Paths implements Renderer.
func (r *HTMLRenderer) Paths() []Path {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// AddDefaultParam implements Renderer.
func (r *HTMLRenderer) AddDefaultParam(templateName, param string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.defaults[templateName] == nil {
		r.defaults[templateName] = make(map[string]any)
	}
	r.defaults[templateName][param] = value
}

// Render implements Renderer.
//
// Parameters are merged from the TemplateAll defaults, the template's own
// defaults and params, later ones winning. The "layout" parameter selects a
// layout by name; false disables the configured default layout.
func (r *HTMLRenderer) Render(w io.Writer, name string, params map[string]any) error {
	data := r.params(name, params)

	layout := r.layout
	if v, ok := data["layout"]; ok {
		switch l := v.(type) {
		case string:
			layout = l
		case bool:
			if !l {
				layout = ""
			}
		case nil:
			layout = ""
		}
	}
	delete(data, "layout")

	if layout == "" {
		return r.execute(w, name, data)
	}

	var content bytes.Buffer
	if err := r.execute(&content, name, data); err != nil {
		return err
	}

	layoutData := r.params(layout, data)
	delete(layoutData, "layout")
	layoutData["content"] = template.HTML(content.String()) //nolint:gosec // rendered by html/template
	return r.execute(w, layout, layoutData)
}

func (r *HTMLRenderer) params(name string, params map[string]any) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := make(map[string]any)
	maps.Copy(data, r.defaults[TemplateAll])
	maps.Copy(data, r.defaults[r.canonical(name)])
	maps.Copy(data, params)
	return data
}

func (r *HTMLRenderer) execute(w io.Writer, name string, data map[string]any) error {
	t, err := r.lookup(name)
	if err != nil {
		return err
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render %q: %w", name, err)
	}
	return nil
}

// canonical returns the name in "namespace::template" form.
func (r *HTMLRenderer) canonical(name string) string {
	if strings.Contains(name, Separator) {
		return name
	}
	return DefaultNamespace + Separator + name
}

func (r *HTMLRenderer) split(name string) (namespace, file string) {
	namespace, file, ok := strings.Cut(name, Separator)
	if !ok {
		namespace, file = DefaultNamespace, name
	}
	if path.Ext(file) == "" {
		file += r.ext
	}
	return namespace, file
}

func (r *HTMLRenderer) lookup(name string) (*template.Template, error) {
	key := r.canonical(name)

	r.mu.RLock()
	if t, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	namespace, file := r.split(name)
	sources, ok := r.sources[namespace]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrInvalidNamespace, namespace, name)
	}

	for _, src := range sources {
		if _, err := fs.Stat(src.fsys, file); err != nil {
			continue
		}
		t, err := template.New(path.Base(file)).Funcs(r.funcs).ParseFS(src.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", name, err)
		}

		r.mu.Lock()
		if r.cache != nil {
			r.cache[key] = t
		}
		r.mu.Unlock()
		return t, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}
