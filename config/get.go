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

package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// Get returns the value at the dot-separated key, or nil. Keys are
// case-insensitive.
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v
	}

	var current any = c.values
	for _, segment := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[segment]; !ok {
			return nil
		}
	}
	return current
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	return c.Get(key) != nil
}

// String returns the value at key converted with spf13/cast.
func (c *Config) String(key string) string {
	return cast.ToString(c.Get(key))
}

// Int is like String for int.
func (c *Config) Int(key string) int {
	return cast.ToInt(c.Get(key))
}

// Bool is like String for bool.
func (c *Config) Bool(key string) bool {
	return cast.ToBool(c.Get(key))
}

// Float64 is like String for float64.
func (c *Config) Float64(key string) float64 {
	return cast.ToFloat64(c.Get(key))
}

// Duration is like String for time.Duration.
func (c *Config) Duration(key string) time.Duration {
	return cast.ToDuration(c.Get(key))
}

// StringSlice is like String for []string.
func (c *Config) StringSlice(key string) []string {
	return cast.ToStringSlice(c.Get(key))
}

// StringMap is like String for map[string]any.
func (c *Config) StringMap(key string) map[string]any {
	return cast.ToStringMap(c.Get(key))
}

// StringOr returns the string at key, or def when unset or not convertible.
func (c *Config) StringOr(key, def string) string {
	return getOr(c, key, def, cast.ToStringE)
}

// IntOr returns the int at key, or def.
func (c *Config) IntOr(key string, def int) int {
	return getOr(c, key, def, cast.ToIntE)
}

// BoolOr returns the bool at key, or def.
func (c *Config) BoolOr(key string, def bool) bool {
	return getOr(c, key, def, cast.ToBoolE)
}

// DurationOr returns the duration at key, or def.
func (c *Config) DurationOr(key string, def time.Duration) time.Duration {
	return getOr(c, key, def, cast.ToDurationE)
}

func getOr[T any](c *Config, key string, def T, conv func(any) (T, error)) T {
	v := c.Get(key)
	if v == nil {
		return def
	}
	out, err := conv(v)
	if err != nil {
		return def
	}
	return out
}

// toJSONValue converts decoded values to the JSON data model the schema
// validator expects.
func toJSONValue(values map[string]any) any {
	data, err := json.Marshal(values)
	if err != nil {
		return values
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return values
	}
	return v
}
