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

// Package config loads layered configuration.
//
// Sources are loaded in order and deep-merged, later sources overriding
// earlier ones. Keys are case-insensitive. The merged values can be checked
// against a JSON Schema and custom validators, bound to a struct, read with
// typed getters and dumped back out:
//
//	var cfg AppConfig
//	c := config.MustNew(
//	    config.WithFile("conduit.yaml"),
//	    config.WithEnv("CONDUIT_"),
//	    config.WithBinding(&cfg),
//	)
//	if err := c.Load(ctx); err != nil {
//	    return err
//	}
//	addr := c.StringOr("server.addr", ":8080")
//
// Supported formats are YAML, JSON and TOML, detected from file extensions.
// Environment variables use "__" between nested keys:
// CONDUIT_SERVER__ADDR=:9000 sets server.addr.
package config
