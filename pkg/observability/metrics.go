// Copyright 2026 The TutorKit Authors
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

// Package observability wires metrics and tracing. Metrics are recorded
// through the OpenTelemetry API and exported in Prometheus format; tracing
// uses the OTel SDK with a stdout exporter for local debugging.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.opentelemetry.io/otel/attribute"
)

const meterName = "tutorkit"

// Metrics holds the instruments recorded by the coordinator and the HTTP
// server.
type Metrics struct {
	enabled bool

	registry *promclient.Registry

	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	stepCounter     metric.Int64Counter
	httpCounter     metric.Int64Counter
	httpDuration    metric.Float64Histogram
}

// NewMetrics creates a Metrics backed by a Prometheus exporter.
func NewMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	m := &Metrics{
		enabled:  true,
		registry: registry,
	}

	m.requestCounter, err = meter.Int64Counter("tutorkit_requests_total",
		metric.WithDescription("Total coordinator requests by intent and status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	m.requestDuration, err = meter.Float64Histogram("tutorkit_request_duration_seconds",
		metric.WithDescription("Coordinator request duration in seconds"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request histogram: %w", err)
	}

	m.stepCounter, err = meter.Int64Counter("tutorkit_chain_steps_total",
		metric.WithDescription("Total capability chain steps by capability and status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step counter: %w", err)
	}

	m.httpCounter, err = meter.Int64Counter("tutorkit_http_requests_total",
		metric.WithDescription("Total HTTP requests by route and code"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http counter: %w", err)
	}

	m.httpDuration, err = meter.Float64Histogram("tutorkit_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http histogram: %w", err)
	}

	return m, nil
}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() *Metrics {
	return &Metrics{}
}

// Enabled reports whether recording is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one coordinator request.
func (m *Metrics) RecordRequest(ctx context.Context, intent, status string, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("status", status),
	)
	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one capability chain step.
func (m *Metrics) RecordStep(ctx context.Context, capability, status string) {
	if !m.Enabled() {
		return
	}
	m.stepCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("status", status),
	))
}

// RecordHTTP records one HTTP request.
func (m *Metrics) RecordHTTP(ctx context.Context, method, route string, code int, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("code", code),
	)
	m.httpCounter.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}
