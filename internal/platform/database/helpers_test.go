package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/goalbreaker/goalbreaker-api/internal/config"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// openMigratedSQLite opens a fresh file-backed SQLite database with every
// migration applied.
func openMigratedSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "goals.db")
	db, dialect, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", URL: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, _ := logger.GetTestLogger(t)
	m, err := NewMigrator(db, dialect, l, false)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	return db
}
