package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/activity-booking/internal/config"
	"github.com/example/activity-booking/internal/persistence"
	"github.com/example/activity-booking/internal/persistence/jsonfile"
	"github.com/example/activity-booking/internal/persistence/memory"
	"github.com/example/activity-booking/internal/persistence/sqlite"
)

// openStore returns the session store selected by cfg and a function that
// releases it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverJSONFile:
		store, err := jsonfile.Open(cfg.StorePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverMemory:
		logger.Warn("using in-memory session store; bookings are lost on restart")
		return memory.New(nil), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
