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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/conduit/config"
	"rivaas.dev/conduit/pipeline"
	"rivaas.dev/conduit/router"
)

// Config is the application section of a configuration document:
//
//	service:
//	  name: orders
//	server:
//	  addr: ":8080"
//	  read_timeout: 5s
//	middleware_pipeline:
//	  - middleware: conduit.routing
//	  - middleware: [auth, conduit.dispatch]
//	    path: /admin
//	    priority: 10
//	routes:
//	  - path: /orders/{id}
//	    middleware: orders.show
//	    allowed_methods: [GET]
//	    name: orders.show
type Config struct {
	Service  ServiceConfig   `config:"service"`
	Server   ServerConfig    `config:"server"`
	Debug    bool            `config:"debug"`
	Pipeline []PipelineEntry `config:"middleware_pipeline" validate:"dive"`
	Routes   []RouteEntry    `config:"routes" validate:"dive"`
}

// ServiceConfig identifies the service.
type ServiceConfig struct {
	Name        string `config:"name"`
	Version     string `config:"version"`
	Environment string `config:"environment" validate:"omitempty,oneof=development production"`
}

// ServerConfig holds the HTTP server settings. Zero values keep the defaults.
type ServerConfig struct {
	Addr              string        `config:"addr"`
	ReadTimeout       time.Duration `config:"read_timeout" validate:"gte=0"`
	WriteTimeout      time.Duration `config:"write_timeout" validate:"gte=0"`
	IdleTimeout       time.Duration `config:"idle_timeout" validate:"gte=0"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout" validate:"gte=0"`
	MaxHeaderBytes    int           `config:"max_header_bytes" validate:"gte=0"`
}

// PipelineEntry is one middleware_pipeline item.
type PipelineEntry struct {
	// Middleware is a middleware spec: a service name, a marker or a list.
	Middleware any    `config:"middleware" validate:"required"`
	Path       string `config:"path" validate:"omitempty,startswith=/"`
	// Priority orders entries, highest first. Default: pipeline.DefaultPriority.
	Priority *int `config:"priority"`
}

func (e PipelineEntry) priority() int {
	if e.Priority == nil {
		return pipeline.DefaultPriority
	}
	return *e.Priority
}

// RouteEntry is one routes item. Without allowed_methods the route answers
// every method.
type RouteEntry struct {
	Path           string         `config:"path" validate:"required"`
	Middleware     any            `config:"middleware" validate:"required"`
	AllowedMethods []string       `config:"allowed_methods" validate:"omitempty,dive,required"`
	Name           string         `config:"name"`
	Options        map[string]any `config:"options"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("config"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeConfig decodes the loaded values of c into a Config and validates it.
func DecodeConfig(c *config.Config) (*Config, error) {
	var cfg Config
	if err := c.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate returns a *ValidationError listing every invalid field.
func (cfg *Config) Validate() error {
	var errs ValidationError

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs.Add(newFieldError(fieldPath(fe.Namespace()), fe.Value(), validationMessage(fe), fe.Tag()))
		}
	}

	for i, e := range cfg.Routes {
		if e.AllowedMethods != nil && len(e.AllowedMethods) == 0 {
			errs.Add(newInvalidValueError(fmt.Sprintf("routes[%d].allowed_methods", i), e.AllowedMethods,
				"cannot be an empty list; omit it to allow every method"))
		}
	}

	s := cfg.Server
	if s.ReadTimeout > 0 && s.WriteTimeout > 0 && s.ReadTimeout > s.WriteTimeout {
		errs.Add(newComparisonError("server.read_timeout", "server.write_timeout",
			s.ReadTimeout, s.WriteTimeout,
			"read timeout should not exceed write timeout"))
	}

	return errs.ToError()
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "cannot be empty"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// Options returns the App options the configuration sets.
func (cfg *Config) Options() []Option {
	var opts []Option
	if cfg.Service.Name != "" {
		opts = append(opts, WithServiceName(cfg.Service.Name))
	}
	if cfg.Service.Version != "" {
		opts = append(opts, WithServiceVersion(cfg.Service.Version))
	}
	if cfg.Service.Environment != "" {
		opts = append(opts, WithEnvironment(cfg.Service.Environment))
	}
	if cfg.Debug {
		opts = append(opts, WithDebug(true))
	}

	var server []ServerOption
	s := cfg.Server
	if s.ReadTimeout > 0 {
		server = append(server, WithReadTimeout(s.ReadTimeout))
	}
	if s.WriteTimeout > 0 {
		server = append(server, WithWriteTimeout(s.WriteTimeout))
	}
	if s.IdleTimeout > 0 {
		server = append(server, WithIdleTimeout(s.IdleTimeout))
	}
	if s.ReadHeaderTimeout > 0 {
		server = append(server, WithReadHeaderTimeout(s.ReadHeaderTimeout))
	}
	if s.ShutdownTimeout > 0 {
		server = append(server, WithShutdownTimeout(s.ShutdownTimeout))
	}
	if s.MaxHeaderBytes > 0 {
		server = append(server, WithMaxHeaderBytes(s.MaxHeaderBytes))
	}
	if len(server) > 0 {
		opts = append(opts, WithServerConfig(server...))
	}
	return opts
}

// NewFromConfig creates an App from cfg, with opts applied after the
// configured settings, and injects its pipeline and routes.
func NewFromConfig(cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := New(append(cfg.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := a.FromConfig(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// FromConfig validates cfg and injects its pipeline and routes.
func (a *App) FromConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := a.InjectPipeline(cfg.Pipeline); err != nil {
		return err
	}
	return a.InjectRoutes(cfg.Routes)
}

// InjectPipeline pipes entries by descending priority; equal priorities
// keep their order.
func (a *App) InjectPipeline(entries []PipelineEntry) error {
	var queue pipeline.Queue[PipelineEntry]
	for _, e := range entries {
		queue.Push(e, e.priority())
	}
	for i := 0; ; i++ {
		e, ok := queue.Pop()
		if !ok {
			return nil
		}
		if e.Middleware == nil {
			return &ValidationError{Errors: []*ConfigError{newEmptyFieldError("middleware_pipeline.middleware")}}
		}
		if err := a.PipePath(e.Path, e.Middleware); err != nil {
			return fmt.Errorf("middleware_pipeline entry %d: %w", i, err)
		}
	}
}

// InjectRoutes adds entries as routes. Conflicts return a
// *router.DuplicateRouteError.
func (a *App) InjectRoutes(entries []RouteEntry) error {
	for i, e := range entries {
		if e.Path == "" || e.Middleware == nil {
			return &ValidationError{Errors: []*ConfigError{
				newEmptyFieldError(fmt.Sprintf("routes[%d]", i)),
			}}
		}

		mw, err := a.prepare(e.Middleware)
		if err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		methods := router.MethodAny
		if e.AllowedMethods != nil {
			methods = e.AllowedMethods
		}
		rt, err := router.NewRoute(e.Path, mw, methods, e.Name)
		if err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		if e.Options != nil {
			rt.SetOptions(e.Options)
		}
		if err := a.addRoute(rt); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return nil
}
