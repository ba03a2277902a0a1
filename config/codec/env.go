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

package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// TypeEnvVar decodes KEY=value lines.
const TypeEnvVar Type = "env_var"

// EnvSeparator splits variable names into nested keys, so that
// SERVER__READ_TIMEOUT=5s becomes {"server": {"read_timeout": "5s"}}.
const EnvSeparator = "__"

// EnvVarCodec decodes environment-style KEY=value lines into a nested map
// with lower-cased keys. Lines without "=" are skipped.
type EnvVarCodec struct{}

func (EnvVarCodec) Decode(data []byte, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("env codec: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(key), EnvSeparator) {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, p := range parts[:len(parts)-1] {
			next, isMap := current[p].(map[string]any)
			if !isMap {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("env codec: %w", err)
	}

	*ptr = conf
	return nil
}
