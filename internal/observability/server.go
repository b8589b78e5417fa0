package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Sumatoshi-tech/bslcheck/pkg/version"
)

const (
	meterName       = "bslcheck"
	readTimeout     = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Exporter wires an OTel meter provider to a Prometheus registry and serves
// the scrape endpoint.
type Exporter struct {
	Meter metric.Meter

	provider *sdkmetric.MeterProvider
	registry *promclient.Registry
	server   *http.Server
}

// NewExporter builds the meter provider with a dedicated Prometheus
// registry. No endpoint is served until Serve is called.
func NewExporter() (*Exporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(meterName),
			semconv.ServiceVersion(version.Version),
		))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Exporter{
		Meter:    provider.Meter(meterName),
		provider: provider,
		registry: registry,
	}, nil
}

// Handler returns the scrape handler for embedding into an existing mux.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve starts the scrape endpoint on addr under /metrics. It blocks until
// the listener fails or Shutdown is called.
func (e *Exporter) Serve(addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())

	e.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}

	logger.Info("serving metrics", "addr", addr)

	if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics listener: %w", err)
	}

	return nil
}

// Shutdown stops the endpoint and flushes the provider.
func (e *Exporter) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if e.server != nil {
		if err := e.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
	}

	if err := e.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}

	return nil
}
