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

package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/grafana/regexp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RequestMetrics tracks one in-flight request between Begin and Finish.
type RequestMetrics struct {
	start time.Time
	attrs []attribute.KeyValue
}

// Begin starts timing a request and counts it as in flight.
func (r *Recorder) Begin(ctx context.Context, method string) *RequestMetrics {
	attrs := make([]attribute.KeyValue, 0, len(r.baseAttrs)+1)
	attrs = append(attrs, r.baseAttrs...)
	attrs = append(attrs, attribute.String("http.request.method", method))

	r.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	return &RequestMetrics{start: time.Now(), attrs: attrs}
}

// Finish records the outcome of a request started with Begin. route is the
// matched route name; unmatched requests use "unmatched".
func (r *Recorder) Finish(ctx context.Context, m *RequestMetrics, status int, size int64, route string) {
	if m == nil {
		return
	}
	r.activeRequests.Add(ctx, -1, metric.WithAttributes(m.attrs...))

	if route == "" {
		route = "unmatched"
	}
	attrs := make([]attribute.KeyValue, 0, len(m.attrs)+3)
	attrs = append(attrs, m.attrs...)
	attrs = append(attrs,
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
		attribute.String("http.status_class", statusClass(status)),
	)
	opt := metric.WithAttributes(attrs...)

	r.requestDuration.Record(ctx, time.Since(m.start).Seconds(), opt)
	r.requestCount.Add(ctx, 1, opt)
	if status >= 400 {
		r.errorCount.Add(ctx, 1, opt)
	}
	if size > 0 {
		r.responseSize.Record(ctx, size, opt)
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// IncrementCounter adds one to the custom counter name, creating it on
// first use.
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error {
	if !metricNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid metric name %q", ErrInvalidConfig, name)
	}

	r.customMu.Lock()
	counter, ok := r.customCounters[name]
	if !ok {
		var err error
		counter, err = r.meterProvider.Meter(meterName).Int64Counter(name)
		if err != nil {
			r.customMu.Unlock()
			return fmt.Errorf("failed to create counter %q: %w", name, err)
		}
		r.customCounters[name] = counter
	}
	r.customMu.Unlock()

	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	return nil
}
