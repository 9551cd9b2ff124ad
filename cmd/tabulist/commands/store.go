package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tabulist/tabulist/pkg/config"
	"github.com/tabulist/tabulist/pkg/flags"
	"github.com/tabulist/tabulist/pkg/todo"
)

// openStore loads the configuration and opens the configured flag store
// backend. The returned cleanup releases the backend.
func openStore(ctx context.Context) (*config.Config, flags.Admin, *todo.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	admin, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return cfg, admin, todo.New(admin), cleanup, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (flags.Admin, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return flags.NewMemory(), func() {}, nil

	case "sqlite":
		db, err := flags.NewSQLite(flags.Config{Path: cfg.Storage.Path})
		if err != nil {
			return nil, nil, err
		}
		if err := db.Init(ctx); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close store")
			}
		}
		return db, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// checkbox renders a done flag the way the list output shows it.
func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
