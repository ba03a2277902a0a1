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

package source

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/conduit/config/codec"
)

// ConsulKV is the subset of the Consul KV API the source uses.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a document stored under one Consul KV key.
type Consul struct {
	kv        ConsulKV
	key       string
	decoder   codec.Decoder
	lastIndex uint64
}

// NewConsul creates a Consul source. A nil cfg uses api.DefaultConfig,
// which honors CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN.
func NewConsul(key string, decoder codec.Decoder, cfg *api.Config) (*Consul, error) {
	if cfg == nil {
		cfg = api.DefaultConfig()
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return NewConsulKV(key, decoder, client.KV()), nil
}

// NewConsulKV creates a Consul source on an existing KV client.
func NewConsulKV(key string, decoder codec.Decoder, kv ConsulKV) *Consul {
	return &Consul{kv: kv, key: key, decoder: decoder}
}

// Load implements config.Source. A missing key yields no values.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key %q: %w", c.key, err)
	}
	if meta != nil {
		c.lastIndex = meta.LastIndex
	}
	if pair == nil {
		return map[string]any{}, nil
	}

	var values map[string]any
	if err := c.decoder.Decode(pair.Value, &values); err != nil {
		return nil, fmt.Errorf("failed to decode consul key %q: %w", c.key, err)
	}
	return values, nil
}

// LastIndex returns the Consul index seen by the last Load.
func (c *Consul) LastIndex() uint64 {
	return c.lastIndex
}
