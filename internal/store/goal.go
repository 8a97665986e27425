package store

import (
	"context"
	"database/sql"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
)

// GoalStore persists goals together with their ordered tasks.
// A goal and its tasks are always written and removed as one unit.
type GoalStore interface {
	// Create inserts the goal and its tasks and sets the generated IDs and
	// CreatedAt on the passed value.
	// Returns ErrInvalidEntity if the goal fails validation.
	Create(ctx context.Context, goal *domain.Goal) error

	// GetByID returns the goal with its tasks ordered by step number.
	// Returns ErrGoalNotFound if no goal has the given id.
	GetByID(ctx context.Context, id int64) (*domain.Goal, error)

	// List returns every goal with its tasks, newest first.
	List(ctx context.Context) ([]*domain.Goal, error)

	// Update replaces the title, complexity score and full task list.
	// Returns ErrGoalNotFound if the goal does not exist.
	Update(ctx context.Context, goal *domain.Goal) error

	// Delete removes the goal and its tasks.
	// Returns ErrGoalNotFound if the goal does not exist.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every goal and task and returns the number of goals removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error

	// WithTx returns a GoalStore bound to tx. Operations on the returned
	// store take part in the caller's transaction.
	WithTx(tx *sql.Tx) GoalStore
}
