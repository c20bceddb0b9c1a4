package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter             metric.Meter
	storedGauge       metric.Int64ObservableGauge
	throughputGauge   metric.Int64ObservableGauge
	feedLengthGauge   metric.Int64ObservableGauge
	capturedCounter   metric.Int64Counter
	generationCounter metric.Int64Counter
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// own registry, so several exporters can live in one process (tests)
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"webhook-inspector",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.storedGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.stored",
		metric.WithDescription("Number of captured requests kept in the store"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeStored),
	)
	if err != nil {
		return fmt.Errorf("creating stored gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.throughput",
		metric.WithDescription("Number of requests captured over time window"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.feedLengthGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.feed.length",
		metric.WithDescription("Number of summaries held by the capture feed stream"),
		metric.WithUnit("{messages}"),
		metric.WithInt64Callback(oe.observeFeedLength),
	)
	if err != nil {
		return fmt.Errorf("creating feed length gauge: %w", err)
	}

	oe.capturedCounter, err = oe.meter.Int64Counter(
		"webhook.captured",
		metric.WithDescription("Requests captured, per capture route and method"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return fmt.Errorf("creating captured counter: %w", err)
	}

	oe.generationCounter, err = oe.meter.Int64Counter(
		"webhook.generation.requests",
		metric.WithDescription("Handler generation calls by outcome"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating generation counter: %w", err)
	}

	return nil
}

// observeStored is a callback that reports the stored count
func (oe *OTelExporter) observeStored(ctx context.Context, observer metric.Int64Observer) error {
	stored, err := oe.collector.GetStoredCount(ctx)
	if err != nil {
		return err
	}
	observer.Observe(stored)
	return nil
}

// observeThroughput is a callback that reports throughput metrics
func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

// observeFeedLength is a callback that reports the feed backlog
func (oe *OTelExporter) observeFeedLength(ctx context.Context, observer metric.Int64Observer) error {
	length, err := oe.collector.GetFeedLength(ctx)
	if err != nil {
		return err
	}
	observer.Observe(length)
	return nil
}

// RecordCapture counts one stored request
func (oe *OTelExporter) RecordCapture(ctx context.Context, route, method string) {
	oe.capturedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capture.route", route),
		attribute.String("http.request.method", method),
	))
}

// RecordGeneration counts one generation call; err decides the outcome label
func (oe *OTelExporter) RecordGeneration(ctx context.Context, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	oe.generationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
