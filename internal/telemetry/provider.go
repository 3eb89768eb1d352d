package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"arkboot/internal/config"
)

// Version is reported as service.version on every exported span and metric.
var Version = "0.1.0"

// metricInterval is the periodic export interval. Shutdown always performs
// a final collection, so a run shorter than this still exports its phases.
const metricInterval = 30 * time.Second

// Provider owns the exporters installed for one bootstrap run.
type Provider struct {
	conn   *grpc.ClientConn
	traces *sdktrace.TracerProvider
	meters *sdkmetric.MeterProvider
}

// InitProvider installs global trace and metric providers that export over a
// single OTLP/gRPC connection to cfg.OTLPEndpoint. The connection is lazy,
// so a missing collector surfaces as export warnings, never as an error here.
func InitProvider(ctx context.Context, cfg config.TelemetryConfig) (*Provider, error) {
	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	conn, err := dialCollector(cfg)
	if err != nil {
		return nil, err
	}
	p := &Provider{conn: conn}

	if p.traces, err = newTracerProvider(ctx, conn, res); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}
	if p.meters, err = newMeterProvider(ctx, conn, res); err != nil {
		p.traces.Shutdown(ctx) //nolint:errcheck
		conn.Close()           //nolint:errcheck
		return nil, err
	}

	otel.SetTracerProvider(p.traces)
	otel.SetMeterProvider(p.meters)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Warn("otel export error", "err", err)
	}))

	slog.Debug("OTEL exporters installed", "endpoint", cfg.OTLPEndpoint, "insecure", cfg.OTLPInsecure)
	return p, nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("building OTEL resource: %w", err)
	}
	return res, nil
}

func dialCollector(cfg config.TelemetryConfig) (*grpc.ClientConn, error) {
	var opts []grpc.DialOption
	if cfg.OTLPInsecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.OTLPEndpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to OTLP collector %s: %w", cfg.OTLPEndpoint, err)
	}
	return conn, nil
}

func newTracerProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

func newMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricInterval))
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// Shutdown flushes both providers and closes the collector connection.
// Flush failures are logged and dropped: the bootstrap outcome never depends
// on telemetry. Only the connection close error is returned.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.meters.Shutdown(ctx); err != nil {
		slog.Debug("flushing metrics", "err", err)
	}
	if err := p.traces.Shutdown(ctx); err != nil {
		slog.Debug("flushing traces", "err", err)
	}
	return p.conn.Close()
}
