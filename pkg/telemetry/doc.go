// Package telemetry provides observability instrumentation for tabulist.
//
// The package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified
// system.
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// Components retrieve the logger from context with FromContext, subscribe to
// store change events via tel.Events.Subscribe, and expose Prometheus metrics
// through tel.StartMetricsServer.
package telemetry
