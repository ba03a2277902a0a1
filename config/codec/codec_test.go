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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{TypeJSON, TypeYAML, TypeTOML} {
		_, err := GetEncoder(typ)
		require.NoError(t, err, typ)
		_, err = GetDecoder(typ)
		require.NoError(t, err, typ)
	}

	_, err := GetDecoder(TypeEnvVar)
	require.NoError(t, err)

	_, err = GetEncoder("ini")
	require.Error(t, err)
}

func TestFormats_Decode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  Type
		data string
	}{
		{"json", TypeJSON, `{"server": {"addr": ":8080"}}`},
		{"yaml", TypeYAML, "server:\n  addr: \":8080\"\n"},
		{"toml", TypeTOML, "[server]\naddr = \":8080\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec, err := GetDecoder(tt.typ)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, dec.Decode([]byte(tt.data), &out))
			server, ok := out["server"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, ":8080", server["addr"])
		})
	}
}

func TestEnvVarCodec(t *testing.T) {
	t.Parallel()

	data := []byte("SERVER__ADDR=:9000\nSERVER__READ_TIMEOUT= 5s \nDEBUG=true\n=ignored\nnoequals\n")

	var out map[string]any
	require.NoError(t, EnvVarCodec{}.Decode(data, &out))

	assert.Equal(t, map[string]any{
		"server": map[string]any{"addr": ":9000", "read_timeout": "5s"},
		"debug":  "true",
	}, out)

	var wrong []string
	require.Error(t, EnvVarCodec{}.Decode(data, &wrong))
}
