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

package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rivaas.dev/conduit/app"
	"rivaas.dev/conduit/container"
	apierrors "rivaas.dev/conduit/errors"
	"rivaas.dev/conduit/logging"
	"rivaas.dev/conduit/metrics"
	"rivaas.dev/conduit/middleware/accesslog"
	"rivaas.dev/conduit/middleware/errorhandler"
	"rivaas.dev/conduit/tracing"
)

func serve(a *app.App, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

var _ = Describe("App Integration", func() {
	var logs *bytes.Buffer

	BeforeEach(func() {
		logs = &bytes.Buffer{}
	})

	newApp := func(opts ...app.Option) *app.App {
		logger := logging.MustNew(logging.WithJSONHandler(), logging.WithOutput(logs)).Logger()
		base := []app.Option{
			app.WithServiceName("integration"),
			app.WithLogger(logger),
			app.WithBannerOutput(io.Discard),
		}
		return app.MustNew(append(base, opts...)...)
	}

	Describe("Container driven pipelines", func() {
		It("resolves route middleware lazily from the container", func() {
			calls := 0
			services := container.New().
				Factory("greeter", func(container.Container) (any, error) {
					calls++
					return func(w http.ResponseWriter, r *http.Request) {
						_, _ = w.Write([]byte("hi " + r.PathValue("who")))
					}, nil
				})

			a := newApp(app.WithContainer(services))
			_, err := a.Get("/greet/{who}", "greeter", "greet")
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(BeZero())

			Expect(serve(a, http.MethodGet, "/greet/ann").Body.String()).To(Equal("hi ann"))
			Expect(serve(a, http.MethodGet, "/greet/bob").Body.String()).To(Equal("hi bob"))
			Expect(calls).To(Equal(1))
		})

		It("maps a missing service to a logged 500", func() {
			a := newApp()
			_, err := a.Get("/ghost", "ghost", "ghost")
			Expect(err).NotTo(HaveOccurred())

			rec := serve(a, http.MethodGet, "/ghost")
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(logs.String()).To(ContainSubstring(`"msg":"request failed"`))
			Expect(logs.String()).To(ContainSubstring("ghost"))
		})
	})

	Describe("Error responses", func() {
		It("negotiates JSON for API clients and plain text otherwise", func() {
			a := newApp(app.WithErrorFormatters(apierrors.NewSimple()))
			_, err := a.Get("/conflict", errorhandler.HandlerFunc(func(http.ResponseWriter, *http.Request) error {
				return apierrors.WithStatus(errors.New("already exists"), http.StatusConflict)
			}), "conflict")
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/conflict", nil)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()
			a.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(rec.Body.String()).To(MatchJSON(`{"error":"already exists"}`))

			rec = serve(a, http.MethodGet, "/conflict")
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/plain"))
		})
	})

	Describe("Observability", func() {
		It("records spans named after the matched route", func() {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			tracer := tracing.MustNew(context.Background(), tracing.WithTracerProvider(tp))

			a := newApp(app.WithTracing(tracer))
			_, err := a.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}, "items.show")
			Expect(err).NotTo(HaveOccurred())

			Expect(serve(a, http.MethodGet, "/items/7").Code).To(Equal(http.StatusNoContent))

			spans := recorder.Ended()
			Expect(spans).To(HaveLen(1))
			Expect(spans[0].Name()).To(Equal("GET items.show"))
		})

		It("exposes metrics and access logs together", func() {
			recorder := metrics.MustNew(metrics.WithPrometheus(), metrics.WithServiceName("integration"))
			DeferCleanup(func() { _ = recorder.Shutdown(context.Background()) })

			a := newApp(app.WithMetrics(recorder), app.WithAccessLog(accesslog.WithExcludePaths(app.DefaultMetricsPath)))
			_, err := a.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			}, "ok")
			Expect(err).NotTo(HaveOccurred())

			Expect(serve(a, http.MethodGet, "/ok").Code).To(Equal(http.StatusOK))

			scrape := serve(a, http.MethodGet, app.DefaultMetricsPath)
			Expect(scrape.Code).To(Equal(http.StatusOK))
			Expect(scrape.Body.String()).To(ContainSubstring("http_requests_total"))

			Expect(logs.String()).To(ContainSubstring(`"route":"ok"`))
			Expect(logs.String()).NotTo(ContainSubstring(`"path":"/metrics"`))
		})
	})

	Describe("Server lifecycle", func() {
		It("serves over TCP and shuts down gracefully", func() {
			a := newApp(app.WithServerConfig(app.WithShutdownTimeout(2 * time.Second)))
			_, err := a.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("pong"))
			}, "ping")
			Expect(err).NotTo(HaveOccurred())

			ready := make(chan struct{})
			stopped := make(chan struct{})
			a.OnReady(func() { close(ready) })
			a.OnStop(func() { close(stopped) })

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- a.Serve(ctx, ln) }()
			Eventually(ready).Should(BeClosed())

			resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
			Expect(err).NotTo(HaveOccurred())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Body.Close()).To(Succeed())
			Expect(string(body)).To(Equal("pong"))

			cancel()
			Eventually(done, 3*time.Second).Should(Receive(BeNil()))
			Expect(stopped).To(BeClosed())
			Expect(logs.String()).To(ContainSubstring("server exited"))
		})
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestAppIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "App Integration Suite")
}
