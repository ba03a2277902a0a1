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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

func (a *App) logLifecycleEvent(ctx context.Context, level slog.Level, msg string, args ...any) {
	if a.logger.Enabled(ctx, level) {
		a.logger.Log(ctx, level, msg, args...)
	}
}

func (a *App) logStartupInfo(ctx context.Context, addr string) {
	attrs := []any{
		"address", addr,
		"environment", a.settings.environment,
		"routes", len(a.Routes()),
	}
	if a.settings.metrics != nil {
		attrs = append(attrs, "metrics_provider", string(a.settings.metrics.Provider()))
	}
	if a.settings.tracer != nil {
		attrs = append(attrs, "tracing_provider", string(a.settings.tracer.Provider()))
	}
	a.logLifecycleEvent(ctx, slog.LevelInfo, "server starting", attrs...)
}

func (a *App) shutdownObservability(ctx context.Context) {
	if a.settings.metrics != nil {
		if err := a.settings.metrics.Shutdown(ctx); err != nil {
			a.logLifecycleEvent(ctx, slog.LevelWarn, "metrics shutdown failed", "error", err)
		}
	}
	if a.settings.tracer != nil {
		if err := a.settings.tracer.Shutdown(ctx); err != nil {
			a.logLifecycleEvent(ctx, slog.LevelWarn, "tracing shutdown failed", "error", err)
		}
	}
}

func (a *App) newServer(addr string) *http.Server {
	sc := a.settings.server
	return &http.Server{
		Addr:              addr,
		Handler:           a.Build(),
		ReadTimeout:       sc.readTimeout,
		WriteTimeout:      sc.writeTimeout,
		IdleTimeout:       sc.idleTimeout,
		ReadHeaderTimeout: sc.readHeaderTimeout,
		MaxHeaderBytes:    sc.maxHeaderBytes,
	}
}

// Start listens on addr and serves until ctx is canceled, then shuts down
// gracefully within the shutdown timeout. Signal handling is left to the
// caller:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer cancel()
//
//	if err := a.Start(ctx, ":8080"); err != nil {
//		log.Fatal(err)
//	}
func (a *App) Start(ctx context.Context, addr string) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is like Start on an existing listener. The listener is closed
// when Serve returns.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.executeStartHooks(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("startup failed: %w", err)
	}

	server := a.newServer(ln.Addr().String())

	a.printStartupBanner(server.Addr)
	a.logStartupInfo(ctx, server.Addr)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()
	a.executeReadyHooks()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		a.logLifecycleEvent(ctx, slog.LevelInfo, "server shutting down", "reason", ctx.Err())
	}

	// ctx is already canceled; the shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.server.shutdownTimeout)
	defer cancel()

	a.executeShutdownHooks(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.shutdownObservability(shutdownCtx)
	a.executeStopHooks()

	a.logLifecycleEvent(shutdownCtx, slog.LevelInfo, "server exited")
	return nil
}
