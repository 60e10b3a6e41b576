package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const metricExportInterval = 15 * time.Second

var ErrObservabilitySetupFailed = errors.New("setting up OpenTelemetry failed")

// ObservabilityProviders holds the OpenTelemetry SDK providers installed as globals.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders builds tracer and meter providers and installs them as the OpenTelemetry globals.
// With an endpoint, spans are batched and metrics exported periodically over OTLP gRPC.
func NewObservabilityProviders(ctx context.Context, cfg OTelConfig, serviceVersion string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, errors.Join(ErrObservabilitySetupFailed, err)
	}

	traceOptions := []trace.TracerProviderOption{trace.WithResource(res)}
	meterOptions := []metric.Option{metric.WithResource(res)}

	if cfg.Endpoint != "" {
		traceExporterOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		metricExporterOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}

		if cfg.Insecure {
			traceExporterOptions = append(traceExporterOptions, otlptracegrpc.WithInsecure())
			metricExporterOptions = append(metricExporterOptions, otlpmetricgrpc.WithInsecure())
		}

		traceExporter, traceErr := otlptracegrpc.New(ctx, traceExporterOptions...)
		if traceErr != nil {
			return nil, errors.Join(ErrObservabilitySetupFailed, traceErr)
		}

		metricExporter, metricErr := otlpmetricgrpc.New(ctx, metricExporterOptions...)
		if metricErr != nil {
			_ = traceExporter.Shutdown(ctx)
			return nil, errors.Join(ErrObservabilitySetupFailed, metricErr)
		}

		traceOptions = append(traceOptions, trace.WithBatcher(traceExporter))
		meterOptions = append(meterOptions, metric.WithReader(
			metric.NewPeriodicReader(metricExporter, metric.WithInterval(metricExportInterval)),
		))
	}

	providers := &ObservabilityProviders{
		TracerProvider: trace.NewTracerProvider(traceOptions...),
		MeterProvider:  metric.NewMeterProvider(meterOptions...),
		Resource:       res,
	}

	otel.SetTracerProvider(providers.TracerProvider)
	otel.SetMeterProvider(providers.MeterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return providers, nil
}

// Shutdown flushes pending spans and metrics and stops both providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	return errors.Join(p.TracerProvider.Shutdown(ctx), p.MeterProvider.Shutdown(ctx))
}
