package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goalbreaker/goalbreaker-api/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraint is a backend-neutral constraint failure category.
type constraint int

const (
	noConstraint constraint = iota
	uniqueConstraint
	foreignKeyConstraint
	checkConstraint
	notNullConstraint
)

// classifyConstraint inspects PostgreSQL and SQLite driver errors.
func classifyConstraint(err error) (constraint, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return uniqueConstraint, pgErr.ConstraintName
		case foreignKeyViolationCode:
			return foreignKeyConstraint, pgErr.ConstraintName
		case checkViolationCode:
			return checkConstraint, pgErr.ConstraintName
		case notNullViolationCode:
			return notNullConstraint, pgErr.ColumnName
		}
		return noConstraint, ""
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueConstraint, ""
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyConstraint, ""
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return checkConstraint, ""
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return notNullConstraint, ""
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return constraintFromMessage(liteErr.Error()), ""
		}
	}

	return noConstraint, ""
}

// constraintFromMessage reads the failure kind from a SQLite message such as
// "UNIQUE constraint failed: tasks.goal_id, tasks.step_number".
func constraintFromMessage(msg string) constraint {
	switch {
	case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
		return uniqueConstraint
	case strings.Contains(msg, "FOREIGN KEY"):
		return foreignKeyConstraint
	case strings.Contains(msg, "CHECK"):
		return checkConstraint
	case strings.Contains(msg, "NOT NULL"):
		return notNullConstraint
	default:
		return noConstraint
	}
}

// MapError maps a database error to the matching store error, wrapping the
// original for debugging. Unmapped errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	switch kind, name := classifyConstraint(err); kind {
	case uniqueConstraint:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case foreignKeyConstraint:
		return fmt.Errorf("%w: foreign key violation (%s): %v", store.ErrInvalidEntity, name, err)
	case checkConstraint:
		return fmt.Errorf("%w: check constraint violation (%s): %v", store.ErrInvalidEntity, name, err)
	case notNullConstraint:
		return fmt.Errorf("%w: not null violation (%s): %v", store.ErrInvalidEntity, name, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation on either backend.
func IsUniqueViolation(err error) bool {
	kind, _ := classifyConstraint(err)
	return kind == uniqueConstraint
}

// IsForeignKeyViolation reports whether err is a foreign key violation on either backend.
func IsForeignKeyViolation(err error) bool {
	kind, _ := classifyConstraint(err)
	return kind == foreignKeyConstraint
}

// CheckRowsAffected returns notFound when result reports zero affected rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}
