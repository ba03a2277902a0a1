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

// Package template renders HTML pages for conduit applications.
//
// Templates are addressed as "namespace::name". Each namespace is backed by
// one or more directories or fs.FS values, searched in the order they were
// added. A name without a namespace resolves against the default namespace.
//
//	r := template.NewHTMLRenderer(template.WithLayout("layout::default"))
//	_ = r.AddPath("templates/error", "error")
//	_ = r.AddPath("templates/layout", "layout")
//	err := r.Render(w, "error::404", map[string]any{"request": req})
//
// When a layout applies, the named template is rendered first and exposed to
// the layout as .content.
package template
