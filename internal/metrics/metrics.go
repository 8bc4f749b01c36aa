package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/footprintai/folderium"

// Provider owns the meter provider and the folder instruments.
type Provider struct {
	mp *sdkmetric.MeterProvider

	appOps      metric.Int64Counter
	trashEvents metric.Int64Counter
}

// NewProvider builds a meter provider exporting over OTLP/HTTP to the given
// endpoint. An empty endpoint yields instruments backed by a provider with no
// reader, so recording is a no-op.
func NewProvider(ctx context.Context, endpoint string) (*Provider, error) {
	var opts []sdkmetric.Option

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("folderium"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}
	opts = append(opts, sdkmetric.WithResource(res))

	if endpoint != "" {
		exporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(meterName)

	appOps, err := meter.Int64Counter("folderium.app.operations",
		metric.WithDescription("App operations by kind and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create app operations counter: %w", err)
	}

	trashEvents, err := meter.Int64Counter("folderium.trash.events",
		metric.WithDescription("Trash events handled by action"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trash events counter: %w", err)
	}

	return &Provider{
		mp:          mp,
		appOps:      appOps,
		trashEvents: trashEvents,
	}, nil
}

// RecordAppOp counts one app operation.
func (p *Provider) RecordAppOp(ctx context.Context, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.appOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// RecordTrashEvent counts one handled trash event.
func (p *Provider) RecordTrashEvent(ctx context.Context, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.trashEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

// Shutdown flushes pending metrics and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
