// Package observability provides OpenTelemetry tracing and metrics for the
// resolution engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
// Every top-level and nested resolution opens a span named
// objectgraph.resolve carrying the contract, instance name and lifecycle.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewBuildMetrics(observability.Meter())
package observability
