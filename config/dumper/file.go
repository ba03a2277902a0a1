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

// Package dumper writes merged configuration values out.
package dumper

import (
	"context"
	"fmt"
	"io"
	"os"

	"rivaas.dev/conduit/config/codec"
)

// DefaultFilePermissions is used by NewFile.
const DefaultFilePermissions = 0o644

// File writes the values to a file.
type File struct {
	path        string
	encoder     codec.Encoder
	permissions os.FileMode
}

// NewFile creates a file dumper.
func NewFile(path string, encoder codec.Encoder) *File {
	return &File{path: path, encoder: encoder, permissions: DefaultFilePermissions}
}

// Dump implements config.Dumper.
func (f *File) Dump(_ context.Context, values map[string]any) error {
	data, err := f.encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("failed to encode values: %w", err)
	}
	if err := os.WriteFile(f.path, data, f.permissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Writer writes the values to an io.Writer such as os.Stdout.
type Writer struct {
	w       io.Writer
	encoder codec.Encoder
}

// NewWriter creates a writer dumper.
func NewWriter(w io.Writer, encoder codec.Encoder) *Writer {
	return &Writer{w: w, encoder: encoder}
}

// Dump implements config.Dumper.
func (d *Writer) Dump(_ context.Context, values map[string]any) error {
	data, err := d.encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("failed to encode values: %w", err)
	}
	_, err = d.w.Write(data)
	return err
}
