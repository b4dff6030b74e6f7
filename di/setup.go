package di

import (
	"context"
	stderrors "errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/objectgraph/config"
	"github.com/kbukum/objectgraph/logger"
	"github.com/kbukum/objectgraph/observability"
	"github.com/kbukum/objectgraph/version"
)

// Runtime is a Container built from configuration together with the
// telemetry providers started for it.
type Runtime struct {
	Container *Container
	Logger    *logger.Logger

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Setup validates cfg, creates the logger, starts OTLP export when tracing
// or metrics are enabled and returns a container wired to all of them.
// opts are applied after the configured ones and may override them.
func Setup(ctx context.Context, cfg config.Config, opts ...Option) (*Runtime, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	rt := &Runtime{Logger: logger.New(&cfg.Logging, cfg.Name)}
	base := []Option{WithConfig(cfg), WithLogger(rt.Logger.WithComponent("di"))}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.ServiceVersion == "" {
			cfg.Tracing.ServiceVersion = version.Get().Version
		}
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, err
		}
		rt.tracerProvider = tp
		base = append(base, WithTracer(tp.Tracer(observability.InstrumentationName)))
	}

	meter := observability.Meter()
	if cfg.Metrics.Enabled {
		if cfg.Metrics.ServiceVersion == "" {
			cfg.Metrics.ServiceVersion = version.Get().Version
		}
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			_ = rt.shutdownProviders(ctx)
			return nil, err
		}
		rt.meterProvider = mp
		meter = mp.Meter(observability.InstrumentationName)
	}
	metrics, err := observability.NewBuildMetrics(meter)
	if err != nil {
		_ = rt.shutdownProviders(ctx)
		return nil, err
	}
	base = append(base, WithMetrics(metrics))

	c, err := NewContainer(append(base, opts...)...)
	if err != nil {
		_ = rt.shutdownProviders(ctx)
		return nil, err
	}
	rt.Container = c

	rt.Logger.Info("container ready", logger.Fields(
		"environment", cfg.Environment,
		"version", version.Get().String(),
		"tracing", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled,
	))
	return rt, nil
}

// Shutdown closes the container, then flushes and stops the telemetry
// providers.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.Container != nil {
		errs = append(errs, r.Container.Close())
	}
	errs = append(errs, r.shutdownProviders(ctx))
	return stderrors.Join(errs...)
}

func (r *Runtime) shutdownProviders(ctx context.Context) error {
	var errs []error
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
		}
	}
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down meter: %w", err))
		}
	}
	return stderrors.Join(errs...)
}
