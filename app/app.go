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
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"rivaas.dev/conduit/container"
	"rivaas.dev/conduit/metrics"
	"rivaas.dev/conduit/middleware/accesslog"
	"rivaas.dev/conduit/middleware/errorhandler"
	"rivaas.dev/conduit/middleware/requestid"
	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
	"rivaas.dev/conduit/router/chirouter"
	"rivaas.dev/conduit/tracing"
)

// Pipeline markers. Piped by name, through Pipe or the middleware_pipeline
// configuration, they stand for the routing and dispatch middlewares.
const (
	RoutingMiddleware  = "conduit.routing"
	DispatchMiddleware = "conduit.dispatch"
)

// App ties a middleware pipeline to a router and serves it.
//
// Middleware specs given to Pipe and Route are prepared through a
// pipeline.Factory, so handlers, decorators, service names and slices of
// those are all accepted. Create an App with New or MustNew.
type App struct {
	settings *settings
	logger   *slog.Logger
	factory  *pipeline.Factory
	router   router.Router
	routes   *router.Collector
	pipe     *pipeline.Pipe
	errors   *errorhandler.ErrorHandler
	notFound *errorhandler.NotFoundHandler
	hooks    *Hooks

	mu       sync.Mutex
	queue    pipeline.Queue[pipeline.Middleware]
	routing  bool
	dispatch bool
	handler  atomic.Pointer[pipeline.Pipe]
}

// New creates an App. Invalid settings return a *ValidationError.
func New(opts ...Option) (*App, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.container == nil {
		s.container = container.New()
	}
	if s.router == nil {
		s.router = chirouter.New()
	}

	generator := errorhandler.NewResponseGenerator(
		errorhandler.WithDebug(s.debug),
		errorhandler.WithRenderer(s.renderer),
		errorhandler.WithFormatters(s.formatters...),
	)
	listeners := append([]errorhandler.Listener{errorhandler.LogListener(s.logger)}, s.listeners...)

	a := &App{
		settings: s,
		logger:   s.logger,
		factory:  pipeline.NewFactory(s.container),
		router:   s.router,
		routes:   router.NewCollector(s.router),
		pipe:     pipeline.NewPipe(),
		errors:   errorhandler.New(errorhandler.WithGenerator(generator), errorhandler.WithListener(listeners...)),
		notFound: errorhandler.NewNotFoundHandler(s.renderer),
		hooks:    &Hooks{},
	}

	if err := a.registerBuiltinRoutes(); err != nil {
		return nil, err
	}

	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *App {
	a, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("app: %v", err))
	}
	return a
}

func (a *App) registerBuiltinRoutes() error {
	if a.settings.metrics != nil {
		if h, err := a.settings.metrics.Handler(); err == nil {
			_, err := a.routes.Get(a.settings.metricsPath, pipeline.Handler(h), "conduit.metrics")
			if err != nil {
				return fmt.Errorf("failed to register metrics route: %w", err)
			}
		}
	}
	if a.settings.health != nil {
		if err := a.registerHealthEndpoints(a.settings.health); err != nil {
			return fmt.Errorf("failed to register health routes: %w", err)
		}
	}
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Factory returns the factory middleware specs are prepared with.
func (a *App) Factory() *pipeline.Factory {
	return a.factory
}

// Router returns the routing backend.
func (a *App) Router() router.Router {
	return a.router
}

// ErrorHandler returns the handler wrapping the pipeline.
func (a *App) ErrorHandler() *errorhandler.ErrorHandler {
	return a.errors
}

// ServiceName returns the configured service name.
func (a *App) ServiceName() string {
	return a.settings.serviceName
}

// Environment returns the configured environment.
func (a *App) Environment() string {
	return a.settings.environment
}

// prepare resolves the pipeline markers before delegating to the factory.
func (a *App) prepare(spec any) (pipeline.Middleware, error) {
	switch v := spec.(type) {
	case string:
		switch v {
		case RoutingMiddleware:
			return a.routingMiddleware(), nil
		case DispatchMiddleware:
			return router.DispatchMiddleware(), nil
		}
	case []string:
		if len(v) > 0 {
			specs := make([]any, len(v))
			for i, s := range v {
				specs[i] = s
			}
			return a.prepare(specs)
		}
	case []any:
		if len(v) > 0 {
			p := pipeline.NewPipe()
			for _, s := range v {
				mw, err := a.prepare(s)
				if err != nil {
					return nil, err
				}
				p.Pipe(mw)
			}
			return p, nil
		}
	}
	return a.factory.Prepare(spec)
}

// routingMiddleware matches the request, then answers implicit HEAD and
// OPTIONS requests and method failures.
func (a *App) routingMiddleware() pipeline.Middleware {
	return pipeline.NewPipe(
		router.Middleware(a.router),
		router.ImplicitHeadMiddleware(a.router),
		router.ImplicitOptionsMiddleware(nil),
		router.MethodNotAllowedMiddleware(nil),
	)
}

// markers records which pipeline markers spec names.
func markers(spec any) (routing, dispatch bool) {
	switch v := spec.(type) {
	case string:
		return v == RoutingMiddleware, v == DispatchMiddleware
	case []string:
		return slices.Contains(v, RoutingMiddleware), slices.Contains(v, DispatchMiddleware)
	case []any:
		for _, s := range v {
			r, d := markers(s)
			routing, dispatch = routing || r, dispatch || d
		}
	}
	return routing, dispatch
}

// Pipe appends middleware to the pipeline. Each spec is prepared
// separately.
func (a *App) Pipe(specs ...any) error {
	return a.PipePath("", specs...)
}

// PipePath appends middleware that only sees requests under path.
func (a *App) PipePath(path string, specs ...any) error {
	mws := make([]pipeline.Middleware, 0, len(specs))
	for _, spec := range specs {
		mw, err := a.prepare(spec)
		if err != nil {
			return err
		}
		if path != "" && path != "/" {
			mw = pipeline.Path(path, mw)
		}
		mws = append(mws, mw)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built() {
		return ErrFrozen
	}
	for _, spec := range specs {
		a.mark(spec)
	}
	a.pipe.Pipe(mws...)
	return nil
}

// PipeWithPriority queues spec until the pipeline is built. Queued entries
// are piped after the ones added with Pipe, highest priority first.
func (a *App) PipeWithPriority(priority int, path string, spec any) error {
	mw, err := a.prepare(spec)
	if err != nil {
		return err
	}
	if path != "" && path != "/" {
		mw = pipeline.Path(path, mw)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.built() {
		return ErrFrozen
	}
	a.mark(spec)
	a.queue.Push(mw, priority)
	return nil
}

func (a *App) mark(spec any) {
	r, d := markers(spec)
	a.routing = a.routing || r
	a.dispatch = a.dispatch || d
}

// PipeRoutingMiddleware pipes the routing middleware unless already piped.
func (a *App) PipeRoutingMiddleware() error {
	a.mu.Lock()
	piped := a.routing
	a.mu.Unlock()
	if piped {
		return nil
	}
	return a.Pipe(RoutingMiddleware)
}

// PipeDispatchMiddleware pipes the dispatch middleware unless already piped.
func (a *App) PipeDispatchMiddleware() error {
	a.mu.Lock()
	piped := a.dispatch
	a.mu.Unlock()
	if piped {
		return nil
	}
	return a.Pipe(DispatchMiddleware)
}

// Route adds a route answering methods (router.MethodAny for every method)
// at path, processed by spec.
func (a *App) Route(path string, spec any, methods []string, name string) (*router.Route, error) {
	mw, err := a.prepare(spec)
	if err != nil {
		return nil, err
	}
	rt, err := router.NewRoute(path, mw, methods, name)
	if err != nil {
		return nil, err
	}
	if err := a.addRoute(rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (a *App) addRoute(rt *router.Route) error {
	if a.built() {
		return ErrFrozen
	}
	if err := a.routes.Add(rt); err != nil {
		return err
	}
	a.fireRouteHook(rt)
	return nil
}

// Get adds a GET route.
func (a *App) Get(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, []string{http.MethodGet}, name)
}

// Post adds a POST route.
func (a *App) Post(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, []string{http.MethodPost}, name)
}

// Put adds a PUT route.
func (a *App) Put(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, []string{http.MethodPut}, name)
}

// Patch adds a PATCH route.
func (a *App) Patch(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, []string{http.MethodPatch}, name)
}

// Delete adds a DELETE route.
func (a *App) Delete(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, []string{http.MethodDelete}, name)
}

// Any adds a route answering every method.
func (a *App) Any(path string, spec any, name string) (*router.Route, error) {
	return a.Route(path, spec, router.MethodAny, name)
}

// Routes returns the collected routes in registration order.
func (a *App) Routes() []*router.Route {
	return a.routes.Routes()
}

// Build assembles the handler served by ServeHTTP. It runs once; later
// calls return the same handler. Pipe and Route return ErrFrozen afterwards.
//
// From the outside in, a request passes the request ID, tracing, metrics
// and access log middlewares, then the error handler, then the pipeline,
// and finally the not-found handler.
func (a *App) Build() http.Handler {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h := a.handler.Load(); h != nil {
		return h
	}

	for {
		mw, ok := a.queue.Pop()
		if !ok {
			break
		}
		a.pipe.Pipe(mw)
	}
	if a.pipe.Len() == 0 && len(a.routes.Routes()) > 0 {
		a.pipe.Pipe(a.routingMiddleware(), router.DispatchMiddleware())
		a.routing, a.dispatch = true, true
	}

	outer := pipeline.NewPipe(requestid.New(a.settings.requestID...))
	if a.settings.tracer != nil {
		outer.Pipe(tracing.Middleware(a.settings.tracer, tracing.WithExcludePaths(a.settings.metricsPath)))
	}
	if a.settings.metrics != nil {
		outer.Pipe(metrics.Middleware(a.settings.metrics, metrics.WithExcludePaths(a.settings.metricsPath)))
	}
	if a.settings.accessLog != nil {
		opts := append([]accesslog.Option{accesslog.WithLogger(a.logger)}, *a.settings.accessLog...)
		outer.Pipe(accesslog.New(opts...))
	}
	outer.Pipe(a.errors, a.pipe)

	outer.WithFallback(a.notFound)
	a.handler.Store(outer)
	return outer
}

func (a *App) built() bool {
	return a.handler.Load() != nil
}

// ServeHTTP builds the application on first use and serves r.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h := a.handler.Load(); h != nil {
		h.ServeHTTP(w, r)
		return
	}
	a.Build().ServeHTTP(w, r)
}
