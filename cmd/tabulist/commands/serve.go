package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tabulist/tabulist/pkg/config"
	"github.com/tabulist/tabulist/pkg/server"
	"github.com/tabulist/tabulist/pkg/telemetry"
	"github.com/tabulist/tabulist/pkg/todo"
)

func newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the tabulist API server.

The server exposes todo and user operations as a JSON API and, when
enabled in the configuration, a Prometheus metrics endpoint. Edits to
the config file are picked up without a restart.`,
		Example: `  # Serve with the default configuration
  tabulist serve

  # Serve with a config file and an explicit listen address
  tabulist serve --config tabulist.yaml --listen :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.NewTelemetry(cfg.Telemetry(rootVersion))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	admin, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store := todo.New(admin,
		todo.WithLogger(tel.Logger),
		todo.WithMetrics(tel.Metrics),
		todo.WithTracer(tel.Tracer),
		todo.WithEvents(tel.Events),
	)

	if cfg.Metrics.Enabled {
		if err := tel.StartMetricsServer(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Log level follows config edits while the server runs. Backend and
	// listen address changes need a restart.
	if configPath != "" {
		watcher := config.NewWatcher(configPath, log.Logger)
		if err := watcher.Watch(ctx, func(next *config.Config) {
			tel.Logger.SetLevel(next.Logging.Level)
		}); err != nil {
			log.Warn().Err(err).Msg("Config watching disabled")
		} else {
			defer watcher.Stop()
		}
	}

	srv := server.New(cfg.Server.Listen, store, admin, tel)
	return srv.Start(ctx)
}
