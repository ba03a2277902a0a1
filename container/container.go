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

package container

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned, wrapped in a [NotFoundError], when a service is not registered.
var ErrNotFound = errors.New("service not found")

// Container resolves services by identifier.
type Container interface {
	// Has reports whether the container can resolve id.
	Has(id string) bool

	// Get resolves id. It returns an error wrapping [ErrNotFound] if the
	// service is unknown, or the factory error if construction fails.
	Get(id string) (any, error)
}

// FactoryFunc builds a service. It receives the container so that
// dependencies can be resolved lazily.
type FactoryFunc func(c Container) (any, error)

// NotFoundError reports a missing service identifier.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container: service %q not found", e.ID)
}

// Unwrap returns [ErrNotFound] so that errors.Is works.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Map is an in-memory [Container].
// Factories run at most once; their result is shared by later calls.
// A factory that fails is retried on the next Get.
//
// Map is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	services  map[string]any
	factories map[string]*factoryEntry
}

type factoryEntry struct {
	mu    sync.Mutex
	fn    FactoryFunc
	built bool
	value any
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		services:  make(map[string]any),
		factories: make(map[string]*factoryEntry),
	}
}

// Set registers a ready-made service, replacing any previous registration.
func (m *Map) Set(id string, service any) *Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.services[id] = service
	delete(m.factories, id)

	return m
}

// Factory registers a lazily built service, replacing any previous registration.
func (m *Map) Factory(id string, fn FactoryFunc) *Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.services, id)
	m.factories[id] = &factoryEntry{fn: fn}

	return m
}

// Has implements [Container].
func (m *Map) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.services[id]; ok {
		return true
	}
	_, ok := m.factories[id]

	return ok
}

// Get implements [Container].
//
// A factory that (directly or indirectly) resolves its own id fails with a
// cycle error instead of deadlocking.
func (m *Map) Get(id string) (any, error) {
	return m.resolve(id, nil)
}

func (m *Map) resolve(id string, chain []string) (any, error) {
	m.mu.RLock()
	service, ok := m.services[id]
	entry := m.factories[id]
	m.mu.RUnlock()

	if ok {
		return service, nil
	}
	if entry == nil {
		return nil, &NotFoundError{ID: id}
	}
	if slices.Contains(chain, id) {
		return nil, fmt.Errorf("container: dependency cycle %s -> %s", strings.Join(chain, " -> "), id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		return entry.value, nil
	}

	value, err := entry.fn(&scope{m: m, chain: append(slices.Clone(chain), id)})
	if err != nil {
		return nil, fmt.Errorf("container: building %q: %w", id, err)
	}
	entry.value = value
	entry.built = true

	return value, nil
}

// IDs returns all registered identifiers in sorted order.
func (m *Map) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.services)+len(m.factories))
	for id := range m.services {
		ids = append(ids, id)
	}
	for id := range m.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// scope is the view of a Map handed to factories; it carries the chain of
// ids under construction for cycle detection.
type scope struct {
	m     *Map
	chain []string
}

func (s *scope) Has(id string) bool { return s.m.Has(id) }

func (s *scope) Get(id string) (any, error) { return s.m.resolve(id, s.chain) }
