package trace

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
)

const (
	endpointEnv    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	sampleRatioEnv = "HW_TRACE_SAMPLE_RATIO"
	versionEnv     = "HW_VERSION"
)

// InitTracer installs the global tracer provider. Without OTEL_EXPORTER_OTLP_ENDPOINT spans
// are recorded by a provider with no exporter.
func InitTracer(serviceName, env string) (func(context.Context) error, error) {
	propagator()

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))
	endpoint := os.Getenv(endpointEnv)
	if endpoint == "" {
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler)))
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(context.Background(), otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(envOr(versionEnv, "dev")),
			semconv.DeploymentEnvironment(env),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// sampleRatio reads HW_TRACE_SAMPLE_RATIO, clamped to [0,1]. Unset or invalid samples everything.
func sampleRatio() float64 {
	raw := os.Getenv(sampleRatioEnv)
	if raw == "" {
		return 1
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}
	return min(max(ratio, 0), 1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
