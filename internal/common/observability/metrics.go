package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records HTTP request metrics through OpenTelemetry and
// exposes them on the Prometheus registry served at /metrics. Instrument and
// attribute names already use Prometheus spelling so the exported names do
// not depend on the exporter's translation scheme.
type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	requestCounter  otelmetric.Int64Counter
	requestDuration otelmetric.Float64Histogram
}

// New registers the exporter on registerer; nil means the default registry.
func New(serviceName string, registerer promclient.Registerer) (*Observability, error) {
	opts := []prometheus.Option{}
	if registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(registerer))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	requestCounter, err := meter.Int64Counter(
		"http_server_requests",
		otelmetric.WithDescription("Number of HTTP requests served"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"http_server_duration",
		otelmetric.WithDescription("HTTP request duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request histogram: %w", err)
	}

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
	}, nil
}

// RecordRequest is safe on a nil receiver so tests can run without metrics.
func (o *Observability) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if o == nil || o.requestCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", status),
	)
	o.requestCounter.Add(ctx, 1, attrs)
	o.requestDuration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
