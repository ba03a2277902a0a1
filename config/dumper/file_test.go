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

package dumper

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/conduit/config/codec"
)

func TestFile_Dump(t *testing.T) {
	t.Parallel()

	enc, err := codec.GetEncoder(codec.TypeJSON)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, NewFile(path, enc).Dump(context.Background(), map[string]any{"name": "conduit"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "conduit"}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm()&os.FileMode(DefaultFilePermissions))
}

func TestWriter_Dump(t *testing.T) {
	t.Parallel()

	enc, err := codec.GetEncoder(codec.TypeTOML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, enc).Dump(context.Background(), map[string]any{"name": "conduit"}))
	assert.Contains(t, buf.String(), `name = "conduit"`)
}
