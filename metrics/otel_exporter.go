package metrics

import (
	"context"
	"fmt"
	"net/http"

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
	collector     Collector

	// OTel meters and instruments
	meter              metric.Meter
	deliveriesGauge    metric.Int64ObservableGauge
	logStatusGauge     metric.Int64ObservableGauge
	pendingRetryGauge  metric.Int64ObservableGauge
	inFlightGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	oe, err := NewOTelExporterWithReader(collector, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(oe.meterProvider)
	return oe, nil
}

// NewOTelExporterWithReader registers the instruments on a meter provider that
// reads through reader
func NewOTelExporterWithReader(collector Collector, reader sdkmetric.Reader) (*OTelExporter, error) {
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	meter := meterProvider.Meter(
		"leadhub",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
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

	oe.deliveriesGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.destination.deliveries",
		metric.WithDescription("Delivery attempts per destination by outcome"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeDeliveries),
	)
	if err != nil {
		return fmt.Errorf("creating deliveries gauge: %w", err)
	}

	oe.logStatusGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.log.status",
		metric.WithDescription("Recent delivery log rows by status"),
		metric.WithUnit("{rows}"),
		metric.WithInt64Callback(oe.observeLogStatus),
	)
	if err != nil {
		return fmt.Errorf("creating log status gauge: %w", err)
	}

	oe.pendingRetryGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.retries.pending",
		metric.WithDescription("Retries scheduled and not yet fired"),
		metric.WithUnit("{retries}"),
		metric.WithInt64Callback(oe.observePendingRetries),
	)
	if err != nil {
		return fmt.Errorf("creating pending retries gauge: %w", err)
	}

	oe.inFlightGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.attempts.inflight",
		metric.WithDescription("Attempts currently holding a delivery slot"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeInFlight),
	)
	if err != nil {
		return fmt.Errorf("creating in-flight attempts gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeDeliveries(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetDeliveryCounts(ctx)
	if err != nil {
		return err
	}

	for id, c := range counts {
		observer.Observe(c.Success, metric.WithAttributes(
			attribute.String("destination.id", id),
			attribute.String("outcome", "success"),
		))
		observer.Observe(c.Failure, metric.WithAttributes(
			attribute.String("destination.id", id),
			attribute.String("outcome", "failure"),
		))
	}

	return nil
}

func (oe *OTelExporter) observeLogStatus(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("webhook.status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observePendingRetries(ctx context.Context, observer metric.Int64Observer) error {
	stats, err := oe.collector.GetDispatcherStats(ctx)
	if err != nil {
		return err
	}
	observer.Observe(int64(stats.PendingRetries))
	return nil
}

func (oe *OTelExporter) observeInFlight(ctx context.Context, observer metric.Int64Observer) error {
	stats, err := oe.collector.GetDispatcherStats(ctx)
	if err != nil {
		return err
	}
	observer.Observe(stats.InFlight)
	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
