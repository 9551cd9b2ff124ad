package telemetry_test

import (
	"context"

	"github.com/tabulist/tabulist/pkg/telemetry"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	// Add telemetry to context
	ctx := tel.WithContext(context.Background())

	logger := telemetry.FromContext(ctx)
	logger.Info("Service started")

	// Output can vary, so we don't specify output for this example
}

// Example_events demonstrates subscribing to todo change events.
func Example_events() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	tel.Events.Subscribe(func(e telemetry.Event) {
		// React to changes here: refresh a cache or notify a client.
	}, telemetry.FilterByType(telemetry.EventTypeToDoCreated))

	_ = tel.Events.PublishToDoCreated("user-1", "a1b2c3d4e5f6g7h8", "buy milk")
}
