package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies a supported SQL backend.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnsupportedDialect is returned for an unknown driver name.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 5 * time.Second

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// Rebind rewrites PostgreSQL $N placeholders into the form d expects.
// For SQLite every $N becomes a plain ?, so queries must reference their
// arguments in order and once each.
func (d Dialect) Rebind(query string) string {
	if d != DialectSQLite {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			b.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, driver)
	}
}

// ResolveDSN determines the dialect and driver DSN for a configured URL.
// The URL scheme wins over the configured driver, so legacy URLs such as
// "postgresql+asyncpg://..." or "sqlite:///./goals.db" keep working.
func ResolveDSN(driver, rawURL string) (Dialect, string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", errors.New("database url cannot be empty")
	}

	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if hasScheme {
		base, _, _ := strings.Cut(strings.ToLower(scheme), "+")
		switch base {
		case "postgres", "postgresql":
			return DialectPostgres, "postgres://" + rest, nil
		case "sqlite", "sqlite3":
			// sqlite:///relative.db and sqlite:////abs/path.db
			return DialectSQLite, sqliteDSN(strings.TrimPrefix(rest, "/")), nil
		default:
			return "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedDialect, scheme)
		}
	}

	d, err := ParseDialect(driver)
	if err != nil {
		return "", "", err
	}
	if d == DialectSQLite {
		return d, sqliteDSN(raw), nil
	}
	return d, raw, nil
}

// sqliteDSN enables foreign keys, a busy timeout and the SQLite time format on path.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func isInMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Open connects to the database described by cfg, applies the pool settings
// and verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect, dsn, err := ResolveDSN(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if dialect == DialectSQLite && isInMemory(dsn) {
		// each connection to :memory: would see its own empty database
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return db, dialect, nil
}
