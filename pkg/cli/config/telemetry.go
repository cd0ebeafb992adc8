package config

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	DefaultServiceName       = "risk-calculator"
	telemetryShutdownTimeout = 5 * time.Second
)

// Telemetry holds CLI flags for OpenTelemetry trace export
type Telemetry struct {
	Endpoint      string
	Authorization string `masq:"secret"`
	ServiceName   string
}

// Flags returns CLI flags for trace export
func (x *Telemetry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "otel-endpoint",
			Usage:       "OTLP/HTTP trace endpoint URL. Tracing is disabled when empty",
			Category:    "Telemetry",
			Sources:     cli.EnvVars("RISKMATRIX_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"),
			Destination: &x.Endpoint,
		},
		&cli.StringFlag{
			Name:        "otel-authorization",
			Usage:       "Authorization header value, or key=value header list, sent to the endpoint",
			Category:    "Telemetry",
			Sources:     cli.EnvVars("RISKMATRIX_OTEL_AUTHORIZATION", "OTEL_EXPORTER_OTLP_HEADERS"),
			Destination: &x.Authorization,
		},
		&cli.StringFlag{
			Name:        "otel-service-name",
			Usage:       "Service name reported with every span",
			Value:       DefaultServiceName,
			Category:    "Telemetry",
			Sources:     cli.EnvVars("RISKMATRIX_OTEL_SERVICE_NAME"),
			Destination: &x.ServiceName,
		},
	}
}

// IsEnabled reports whether an endpoint is configured
func (x *Telemetry) IsEnabled() bool {
	return x.Endpoint != ""
}

// Configure installs a global tracer provider exporting to Endpoint and
// returns a function that flushes and stops it. Without an endpoint the
// global provider is left untouched.
func (x *Telemetry) Configure(ctx context.Context) (func(), error) {
	if !x.IsEnabled() {
		return func() {}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(x.Endpoint)}
	if headers := exportHeaders(x.Authorization); len(headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return func() {}, goerr.Wrap(err, "failed to create trace exporter", goerr.V("endpoint", x.Endpoint))
	}

	serviceName := x.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return func() {}, goerr.Wrap(err, "failed to build trace resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logging.Default().Warn("failed to flush traces", "error", err)
		}
	}, nil
}

// exportHeaders accepts either a bare Authorization value or a
// comma-separated key=value list
func exportHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return map[string]string{"Authorization": raw}
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}
