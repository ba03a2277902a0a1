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

// Package container provides a minimal service locator used to resolve
// middleware and handlers by name.
//
// Middleware named in configuration (for example "auth" or "home.handler")
// is looked up in a Container when a request first needs it. Any type with
// Has and Get methods can serve, so existing dependency-injection setups can
// be adapted with a few lines.
//
// Example:
//
//	c := container.New()
//	c.Set("home.handler", http.HandlerFunc(home))
//	c.Factory("db", func(c container.Container) (any, error) {
//	    return sql.Open("sqlite", "app.db")
//	})
package container
