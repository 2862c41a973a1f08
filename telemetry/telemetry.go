// Package telemetry wires optional OpenTelemetry tracing and metrics.
// Export goes to an OTLP/HTTP collector; when disabled or when the
// exporter cannot be created, every recording helper is a no-op.
package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/subwaypi/transit-relay/config"
)

// Init sets up tracing and metrics per the telemetry config and returns a
// shutdown function. Failures are logged and degrade to no-ops; telemetry
// must never keep the relay from serving.
func Init(cfg config.TelemetryConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		log.Printf("telemetry resource error, disabling: %v", err)
		return func() {}
	}

	shutdownTracing := initTracing(cfg, res)
	shutdownMetrics := initMetrics(cfg, res)

	return func() {
		shutdownTracing()
		shutdownMetrics()
	}
}

func initTracing(cfg config.TelemetryConfig, res *resource.Resource) func() {
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		log.Printf("failed to create OTLP trace exporter, using noop: %v", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}
}

func initMetrics(cfg config.TelemetryConfig, res *resource.Resource) func() {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
	if cfg.Endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		log.Printf("failed to create OTLP metric exporter, using noop: %v", err)
		return func() {}
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(60*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := initInstruments(mp.Meter("transit-relay")); err != nil {
		log.Printf("failed to initialize metric instruments: %v", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down meter provider: %v", err)
		}
	}
}
