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

package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"rivaas.dev/conduit/router"
)

// Hooks holds the lifecycle callbacks of an App.
type Hooks struct {
	onStart    []func(context.Context) error // sequential, stops on first error
	onReady    []func()                      // async
	onShutdown []func(context.Context)       // LIFO
	onStop     []func()                      // best effort
	onRoute    []func(*router.Route)
	mu         sync.Mutex
}

func (a *App) mustNotBeBuilt() {
	if a.built() {
		panic("cannot register hooks after the application is built")
	}
}

// OnStart registers a hook run before the server listens. A failing hook
// aborts Start.
//
//	a.OnStart(func(ctx context.Context) error {
//		return db.PingContext(ctx)
//	})
func (a *App) OnStart(fn func(context.Context) error) {
	a.mustNotBeBuilt()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStart = append(a.hooks.onStart, fn)
}

// OnReady registers a hook run in its own goroutine once the server listens.
func (a *App) OnReady(fn func()) {
	a.mustNotBeBuilt()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onReady = append(a.hooks.onReady, fn)
}

// OnShutdown registers a hook run during graceful shutdown, in reverse
// registration order, with the shutdown deadline in ctx.
func (a *App) OnShutdown(fn func(context.Context)) {
	a.mustNotBeBuilt()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onShutdown = append(a.hooks.onShutdown, fn)
}

// OnStop registers a hook run after the server stopped. Panics are logged.
func (a *App) OnStop(fn func()) {
	a.mustNotBeBuilt()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStop = append(a.hooks.onStop, fn)
}

// OnRoute registers a hook fired for every route added afterwards.
func (a *App) OnRoute(fn func(*router.Route)) {
	a.mustNotBeBuilt()
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onRoute = append(a.hooks.onRoute, fn)
}

func (a *App) fireRouteHook(rt *router.Route) {
	a.hooks.mu.Lock()
	hooks := slices.Clone(a.hooks.onRoute)
	a.hooks.mu.Unlock()

	for _, hook := range hooks {
		hook(rt)
	}
}

func (a *App) executeStartHooks(ctx context.Context) error {
	a.hooks.mu.Lock()
	hooks := slices.Clone(a.hooks.onStart)
	a.hooks.mu.Unlock()

	for i, hook := range hooks {
		if err := runStartHook(ctx, hook); err != nil {
			return fmt.Errorf("OnStart hook %d failed: %w", i, err)
		}
	}
	return nil
}

// runStartHook turns a panic into an error so Start can abort cleanly.
func runStartHook(ctx context.Context, hook func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx)
}

func (a *App) executeReadyHooks() {
	a.hooks.mu.Lock()
	hooks := slices.Clone(a.hooks.onReady)
	a.hooks.mu.Unlock()

	for _, hook := range hooks {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.logLifecycleEvent(context.Background(), slog.LevelError, "OnReady hook panic", "error", r)
				}
			}()
			hook()
		}()
	}
}

func (a *App) executeShutdownHooks(ctx context.Context) {
	a.hooks.mu.Lock()
	hooks := slices.Clone(a.hooks.onShutdown)
	a.hooks.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logLifecycleEvent(ctx, slog.LevelError, "OnShutdown hook panic", "error", r)
				}
			}()
			hooks[i](ctx)
		}()
	}
}

func (a *App) executeStopHooks() {
	a.hooks.mu.Lock()
	hooks := slices.Clone(a.hooks.onStop)
	a.hooks.mu.Unlock()

	for _, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logLifecycleEvent(context.Background(), slog.LevelWarn, "OnStop hook panic", "error", r)
				}
			}()
			hook()
		}()
	}
}
