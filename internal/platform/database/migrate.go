package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration commands accepted by Migrator.Run.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// ErrUnknownMigrateCommand is returned by Migrator.Run for an unsupported command.
var ErrUnknownMigrateCommand = errors.New("unknown migrate command")

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version   int64
	Source    string
	Applied   bool
	AppliedAt time.Time
}

// slogGooseLogger adapts goose's Printf-style logger to slog. Fatalf logs at
// error level and does not exit; failures come back as errors.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrator applies the embedded migrations for one dialect.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// MigrationsFS returns the embedded migration files for d.
func MigrationsFS(d Dialect) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+string(d))
}

func gooseDialect(d Dialect) (goose.Dialect, error) {
	switch d {
	case DialectPostgres:
		return goose.DialectPostgres, nil
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, d)
	}
}

// NewMigrator creates a Migrator. Each Migrator tags its logs with a fresh
// correlation id.
func NewMigrator(db *sql.DB, d Dialect, l *slog.Logger, verbose bool) (*Migrator, error) {
	if l == nil {
		l = slog.Default()
	}
	l = l.With(
		slog.String("component", "migrations"),
		slog.String("correlation_id", uuid.NewString()),
		slog.String("dialect", string(d)),
	)

	dialect, err := gooseDialect(d)
	if err != nil {
		return nil, err
	}
	fsys, err := MigrationsFS(d)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys,
		goose.WithVerbose(verbose),
		goose.WithLogger(&slogGooseLogger{logger: l}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Migrator{provider: provider, logger: l}, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	start := time.Now()
	results, err := m.provider.Up(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "migration up failed", slog.String("error", err.Error()))
		return len(results), fmt.Errorf("migrate up: %w", err)
	}

	for _, r := range results {
		m.logger.InfoContext(ctx, "applied migration",
			slog.Int64("version", r.Source.Version),
			slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}
	m.logger.InfoContext(ctx, "migrations up to date",
		slog.Int("applied", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return len(results), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "migration down failed", slog.String("error", err.Error()))
		return fmt.Errorf("migrate down: %w", err)
	}
	if result != nil && result.Source != nil {
		m.logger.InfoContext(ctx, "rolled back migration", slog.Int64("version", result.Source.Version))
	}
	return nil
}

// Status lists every embedded migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version:   s.Source.Version,
			Source:    s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Version returns the current schema version, 0 when nothing is applied.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate version: %w", err)
	}
	return v, nil
}

// Run executes one of the Migrate* commands and logs its outcome.
func (m *Migrator) Run(ctx context.Context, command string) error {
	switch command {
	case MigrateUp:
		_, err := m.Up(ctx)
		return err
	case MigrateDown:
		return m.Down(ctx)
	case MigrateStatus:
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			m.logger.InfoContext(ctx, "migration status",
				slog.Int64("version", s.Version),
				slog.String("source", s.Source),
				slog.Bool("applied", s.Applied))
		}
		return nil
	case MigrateVersion:
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "current schema version", slog.Int64("version", v))
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigrateCommand, command)
	}
}
