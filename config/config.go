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
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/consul/api"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/conduit/config/codec"
	"rivaas.dev/conduit/config/dumper"
	"rivaas.dev/conduit/config/source"
)

// Source provides configuration values. Load must be safe to call repeatedly.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Dumper writes configuration values.
type Dumper interface {
	Dump(ctx context.Context, values map[string]any) error
}

// Validator is implemented by bound structs that check themselves.
type Validator interface {
	Validate() error
}

// Option configures a Config.
type Option func(c *Config) error

// Config holds merged configuration values. It is safe for concurrent use.
type Config struct {
	mu      sync.RWMutex
	values  map[string]any
	sources []Source
	dumpers []Dumper

	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
}

var extensionFormats = map[string]codec.Type{
	".yaml": codec.TypeYAML,
	".yml":  codec.TypeYAML,
	".json": codec.TypeJSON,
	".toml": codec.TypeTOML,
}

// DetectFormat returns the codec for the extension of path.
func DetectFormat(path string) (codec.Type, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionFormats[ext]; ok {
		return t, nil
	}
	return "", fmt.Errorf("cannot detect format from extension %q", ext)
}

// WithSource adds a custom source.
func WithSource(s Source) Option {
	return func(c *Config) error {
		if s == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithFile adds a file source, its format detected from the extension.
func WithFile(path string) Option {
	return func(c *Config) error {
		t, err := DetectFormat(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, t)(c)
	}
}

// WithFileAs adds a file source in an explicit format.
func WithFileAs(path string, t codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithContent adds raw content as a source.
func WithContent(data []byte, t codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewContent(data, dec))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithConsul adds the Consul KV key as a source, its format detected from the
// key's extension. A nil cfg uses the Consul defaults.
func WithConsul(key string, cfg *api.Config) Option {
	return func(c *Config) error {
		t, err := DetectFormat(key)
		if err != nil {
			return err
		}
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		s, err := source.NewConsul(key, dec, cfg)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithDumper adds a dumper.
func WithDumper(d Dumper) Option {
	return func(c *Config) error {
		if d == nil {
			return errors.New("dumper cannot be nil")
		}
		c.dumpers = append(c.dumpers, d)
		return nil
	}
}

// WithFileDumper dumps to path in the format of its extension.
func WithFileDumper(path string) Option {
	return func(c *Config) error {
		t, err := DetectFormat(path)
		if err != nil {
			return err
		}
		enc, err := codec.GetEncoder(t)
		if err != nil {
			return err
		}
		c.dumpers = append(c.dumpers, dumper.NewFile(path, enc))
		return nil
	}
}

// WithBinding decodes the values into v, a non-nil struct pointer, on Load.
// Fields already set on v are kept when no value overrides them.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("binding target must be a non-nil pointer, got %T", v)
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used for binding. Default: "config".
func WithTag(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return errors.New("tag name cannot be empty")
		}
		c.tagName = name
		return nil
	}
}

// WithJSONSchema validates the merged values against schema on Load.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return fmt.Errorf("invalid json schema: %w", err)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.schema.json", doc); err != nil {
			return err
		}
		s, err := compiler.Compile("config.schema.json")
		if err != nil {
			return fmt.Errorf("invalid json schema: %w", err)
		}
		c.schema = s
		return nil
	}
}

// WithValidator runs fn on the merged values on Load.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
		return nil
	}
}

// New creates a Config. Option errors are joined; the returned Config is
// usable only when the error is nil.
func New(opts ...Option) (*Config, error) {
	c := &Config{values: map[string]any{}, tagName: "config"}

	var errs error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		errs = errors.Join(errs, opt(c))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// Load reads every source, merges, validates and binds the result. The
// previous values are kept when any step fails.
func (c *Config) Load(ctx context.Context) error {
	merged := make(map[string]any)
	for i, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := s.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err := mergo.Merge(&merged, normalize(values), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	if c.schema != nil {
		if err := c.schema.Validate(toJSONValue(merged)); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.validators {
		if err := fn(merged); err != nil {
			return NewError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	if c.binding != nil {
		if err := c.bind(merged); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.values = merged
	c.mu.Unlock()
	return nil
}

func (c *Config) bind(values map[string]any) error {
	// Decode into a copy first so a failure leaves the target untouched.
	target := reflect.ValueOf(c.binding).Elem()
	tmp := reflect.New(target.Type())
	tmp.Elem().Set(target)

	if err := c.decode(values, tmp.Interface()); err != nil {
		return NewError("binding", "bind", err)
	}
	if v, ok := tmp.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	target.Set(tmp.Elem())
	return nil
}

func (c *Config) decode(values map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

// Decode decodes the current values into v, a struct pointer, using the
// binding tag.
func (c *Config) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}
	if err := c.decode(c.Values(), v); err != nil {
		return NewError("decode", "bind", err)
	}
	return nil
}

// Dump writes the current values to every dumper.
func (c *Config) Dump(ctx context.Context) error {
	values := c.Values()
	for _, d := range c.dumpers {
		if err := d.Dump(ctx, values); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a shallow copy of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// normalize lower-cases keys recursively, through lists as well.
func normalize(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[strings.ToLower(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return normalize(m)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
