package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/database"
)

// runMigrations opens the database, runs one migration command and closes
// the connection again.
func runMigrations(ctx context.Context, cfg config.DatabaseConfig, l *slog.Logger, command string, verbose bool) error {
	db, dialect, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	m, err := database.NewMigrator(db, dialect, l, verbose)
	if err != nil {
		return err
	}

	l.Info("executing migrations", slog.String("command", command), slog.String("dialect", string(dialect)))
	if err := m.Run(ctx, command); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
