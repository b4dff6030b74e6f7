package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/objectgraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns on OTLP export. When false the global (no-op) provider is used.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns the engine's meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// BuildMetrics holds the instruments recorded by build sessions.
type BuildMetrics struct {
	buildTotal    metric.Int64Counter
	buildDuration metric.Float64Histogram
	buildErrors   metric.Int64Counter
	cacheHits     metric.Int64Counter
	sessionTotal  metric.Int64Counter
}

// NewBuildMetrics creates the build instruments on the given meter.
func NewBuildMetrics(meter metric.Meter) (*BuildMetrics, error) {
	buildTotal, err := meter.Int64Counter("objectgraph.build.total",
		metric.WithDescription("Instances built, by contract and lifecycle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectgraph.build.total counter: %w", err)
	}

	buildDuration, err := meter.Float64Histogram("objectgraph.build.duration",
		metric.WithDescription("Duration of instance builds in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectgraph.build.duration histogram: %w", err)
	}

	buildErrors, err := meter.Int64Counter("objectgraph.build.errors",
		metric.WithDescription("Failed resolutions, by contract and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectgraph.build.errors counter: %w", err)
	}

	cacheHits, err := meter.Int64Counter("objectgraph.cache.hits",
		metric.WithDescription("Resolutions served from a session or singleton cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectgraph.cache.hits counter: %w", err)
	}

	sessionTotal, err := meter.Int64Counter("objectgraph.session.total",
		metric.WithDescription("Build sessions opened"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectgraph.session.total counter: %w", err)
	}

	return &BuildMetrics{
		buildTotal:    buildTotal,
		buildDuration: buildDuration,
		buildErrors:   buildErrors,
		cacheHits:     cacheHits,
		sessionTotal:  sessionTotal,
	}, nil
}

// RecordBuild records one completed build of contract under lifecycle.
func (m *BuildMetrics) RecordBuild(ctx context.Context, contract, lifecycle string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("contract", contract),
		attribute.String("lifecycle", lifecycle),
	)
	m.buildTotal.Add(ctx, 1, attrs)
	m.buildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordError records a failed resolution of contract.
func (m *BuildMetrics) RecordError(ctx context.Context, contract, code string) {
	if m == nil {
		return
	}
	m.buildErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("contract", contract),
		attribute.String("code", code),
	))
}

// RecordCacheHit records a resolution served from cache.
func (m *BuildMetrics) RecordCacheHit(ctx context.Context, contract, lifecycle string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("contract", contract),
		attribute.String("lifecycle", lifecycle),
	))
}

// RecordSession records a newly opened build session.
func (m *BuildMetrics) RecordSession(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionTotal.Add(ctx, 1)
}
