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

// Command conduit serves a configuration-driven middleware application.
//
// Usage:
//
//	conduit serve  -config conduit.yaml [-addr :8080] [-env-file .env]
//	conduit routes -config conduit.yaml
//	conduit config -config conduit.yaml [-consul-key conduit/config.yaml]
//
// Configuration is read from the file, then from the Consul KV key when
// -consul-key is set, then from CONDUIT_ environment variables, with "__"
// separating nested keys (CONDUIT_SERVER__ADDR=:9090). The Consul agent
// address comes from -consul-addr or CONSUL_HTTP_ADDR. A .env file, when
// present, is loaded into the environment first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/consul/api"
	"github.com/joho/godotenv"

	"rivaas.dev/conduit/config"
	"rivaas.dev/conduit/config/codec"
	"rivaas.dev/conduit/config/dumper"
)

const envPrefix = "CONDUIT_"

const usage = `usage: conduit <command> [flags]

commands:
  serve   start the HTTP server
  routes  print the route table
  config  print the merged configuration as YAML
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "serve", "routes", "config":
	case "-h", "-help", "--help", "help":
		_, _ = fmt.Fprint(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	flags := flag.NewFlagSet("conduit "+cmd, flag.ContinueOnError)
	flags.SetOutput(stderr)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the configuration")
	addr := flags.String("addr", "", "listen address, overrides server.addr")
	var src sources
	flags.StringVar(&src.path, "config", "", "configuration file (yaml, json or toml)")
	flags.StringVar(&src.consulKey, "consul-key", "", "Consul KV key layered over the file; its extension selects the format")
	flags.StringVar(&src.consulAddr, "consul-addr", "", "Consul agent address (default CONSUL_HTTP_ADDR or 127.0.0.1:8500)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := loadDotEnv(*envFile); err != nil {
		_, _ = fmt.Fprintf(stderr, "conduit: %v\n", err)
		return 1
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, src, *addr, stdout, stderr)
	case "routes":
		err = printRoutes(ctx, src, stdout, stderr)
	case "config":
		err = dumpConfig(ctx, src, stdout)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "conduit: %v\n", err)
		return 1
	}
	return 0
}

// loadDotEnv sets variables from path without overriding the environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// sources names where the configuration is read from.
type sources struct {
	path       string
	consulKey  string
	consulAddr string
}

func loadConfig(ctx context.Context, src sources, opts ...config.Option) (*config.Config, error) {
	var layers []config.Option
	if src.path != "" {
		layers = append(layers, config.WithFile(src.path))
	}
	if src.consulKey != "" {
		var cfg *api.Config
		if src.consulAddr != "" {
			cfg = api.DefaultConfig()
			cfg.Address = src.consulAddr
		}
		layers = append(layers, config.WithConsul(src.consulKey, cfg))
	}
	layers = append(layers, config.WithEnv(envPrefix))

	c, err := config.New(append(layers, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func serve(ctx context.Context, src sources, addr string, stdout, stderr io.Writer) error {
	raw, err := loadConfig(ctx, src)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, raw, stdout, stderr)
	if err != nil {
		return err
	}

	if addr == "" {
		addr = raw.StringOr("server.addr", ":8080")
	}
	return a.Start(ctx, addr)
}

func printRoutes(ctx context.Context, src sources, stdout, stderr io.Writer) error {
	raw, err := loadConfig(ctx, src)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, raw, io.Discard, stderr)
	if err != nil {
		return err
	}
	a.PrintRoutes(stdout)
	return nil
}

func dumpConfig(ctx context.Context, src sources, stdout io.Writer) error {
	enc, err := codec.GetEncoder(codec.TypeYAML)
	if err != nil {
		return err
	}
	raw, err := loadConfig(ctx, src, config.WithDumper(dumper.NewWriter(stdout, enc)))
	if err != nil {
		return err
	}
	return raw.Dump(ctx)
}
