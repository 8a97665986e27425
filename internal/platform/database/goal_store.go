package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/goalbreaker/goalbreaker-api/internal/store"
)

// Queries use PostgreSQL placeholders, each argument referenced once and in order.
const (
	insertGoalQuery = `
		INSERT INTO goals (title, complexity_score, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	insertTaskQuery = `
		INSERT INTO tasks (goal_id, description, step_number)
		VALUES ($1, $2, $3)
		RETURNING id`

	selectGoalQuery = `
		SELECT id, title, complexity_score, created_at
		FROM goals
		WHERE id = $1`

	selectGoalsQuery = `
		SELECT id, title, complexity_score, created_at
		FROM goals
		ORDER BY created_at DESC, id DESC`

	selectGoalTasksQuery = `
		SELECT id, goal_id, description, step_number
		FROM tasks
		WHERE goal_id = $1
		ORDER BY step_number`

	selectAllTasksQuery = `
		SELECT id, goal_id, description, step_number
		FROM tasks
		ORDER BY goal_id, step_number`

	updateGoalQuery = `
		UPDATE goals
		SET title = $1, complexity_score = $2
		WHERE id = $3`

	deleteGoalTasksQuery = `DELETE FROM tasks WHERE goal_id = $1`
	deleteGoalQuery      = `DELETE FROM goals WHERE id = $1`
	deleteAllTasksQuery  = `DELETE FROM tasks`
	deleteAllGoalsQuery  = `DELETE FROM goals`
	pingQuery            = `SELECT 1`
)

// GoalStore implements store.GoalStore on PostgreSQL or SQLite.
type GoalStore struct {
	db      store.DBTX
	conn    *sql.DB // nil when bound to a caller's transaction
	dialect Dialect
	logger  *slog.Logger
}

var _ store.GoalStore = (*GoalStore)(nil)

// NewGoalStore creates a GoalStore on db. Multi-statement writes run in
// their own transaction unless the store is bound with WithTx.
func NewGoalStore(db *sql.DB, dialect Dialect, l *slog.Logger) *GoalStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}

	return &GoalStore{
		db:      db,
		conn:    db,
		dialect: dialect,
		logger:  l.With(slog.String("component", "goal_store")),
	}
}

// WithTx implements store.GoalStore.WithTx.
func (s *GoalStore) WithTx(tx *sql.Tx) store.GoalStore {
	return &GoalStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

// write runs fn in a transaction, or directly when already bound to one.
func (s *GoalStore) write(ctx context.Context, fn func(q store.DBTX) error) error {
	if s.conn == nil {
		return fn(s.db)
	}
	return store.RunInTransaction(ctx, s.conn, func(ctx context.Context, tx *sql.Tx) error {
		return fn(tx)
	})
}

func (s *GoalStore) q(query string) string {
	return s.dialect.Rebind(query)
}

// Create implements store.GoalStore.Create.
func (s *GoalStore) Create(ctx context.Context, goal *domain.Goal) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := goal.Validate(); err != nil {
		log.WarnContext(ctx, "goal validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	createdAt := goal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Microsecond)

	var id int64
	tasks := make([]domain.Task, len(goal.Tasks))
	copy(tasks, goal.Tasks)

	err := s.write(ctx, func(q store.DBTX) error {
		err := q.QueryRowContext(ctx, s.q(insertGoalQuery),
			goal.Title, goal.ComplexityScore, createdAt).Scan(&id)
		if err != nil {
			return store.NewStoreError("goal", "create", "failed to insert goal", MapError(err))
		}
		return s.insertTasks(ctx, q, id, tasks)
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to create goal", slog.String("error", err.Error()))
		return err
	}

	goal.ID = id
	goal.CreatedAt = createdAt
	goal.Tasks = tasks

	log.InfoContext(ctx, "goal created",
		slog.Int64("goal_id", id),
		slog.Int("complexity_score", goal.ComplexityScore),
		slog.Int("task_count", len(tasks)))
	return nil
}

// insertTasks writes tasks for goalID and fills in their IDs.
func (s *GoalStore) insertTasks(ctx context.Context, q store.DBTX, goalID int64, tasks []domain.Task) error {
	for i := range tasks {
		tasks[i].GoalID = goalID
		err := q.QueryRowContext(ctx, s.q(insertTaskQuery),
			goalID, tasks[i].Description, tasks[i].StepNumber).Scan(&tasks[i].ID)
		if err != nil {
			return store.NewStoreError("task", "create",
				fmt.Sprintf("failed to insert step %d", tasks[i].StepNumber), MapError(err))
		}
	}
	return nil
}

// GetByID implements store.GoalStore.GetByID.
func (s *GoalStore) GetByID(ctx context.Context, id int64) (*domain.Goal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var g domain.Goal
	err := s.db.QueryRowContext(ctx, s.q(selectGoalQuery), id).
		Scan(&g.ID, &g.Title, &g.ComplexityScore, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.DebugContext(ctx, "goal not found", slog.Int64("goal_id", id))
			return nil, store.ErrGoalNotFound
		}
		log.ErrorContext(ctx, "failed to get goal", slog.Int64("goal_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("goal", "get", "failed to select goal", MapError(err))
	}
	g.CreatedAt = g.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, s.q(selectGoalTasksQuery), id)
	if err != nil {
		return nil, store.NewStoreError("task", "list", "failed to select tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	byGoal, err := scanTasks(rows)
	if err != nil {
		return nil, store.NewStoreError("task", "list", "failed to scan tasks", MapError(err))
	}
	g.Tasks = byGoal[id]
	if g.Tasks == nil {
		g.Tasks = []domain.Task{}
	}

	return &g, nil
}

// List implements store.GoalStore.List. Goals come back newest first with
// tasks ordered by step number.
func (s *GoalStore) List(ctx context.Context) ([]*domain.Goal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, s.q(selectGoalsQuery))
	if err != nil {
		log.ErrorContext(ctx, "failed to list goals", slog.String("error", err.Error()))
		return nil, store.NewStoreError("goal", "list", "failed to select goals", MapError(err))
	}

	goals := make([]*domain.Goal, 0)
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.ComplexityScore, &g.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, store.NewStoreError("goal", "list", "failed to scan goal", err)
		}
		g.CreatedAt = g.CreatedAt.UTC()
		goals = append(goals, &g)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, store.NewStoreError("goal", "list", "failed to iterate goals", MapError(err))
	}
	_ = rows.Close()

	if len(goals) == 0 {
		return goals, nil
	}

	taskRows, err := s.db.QueryContext(ctx, s.q(selectAllTasksQuery))
	if err != nil {
		return nil, store.NewStoreError("task", "list", "failed to select tasks", MapError(err))
	}
	defer func() { _ = taskRows.Close() }()

	byGoal, err := scanTasks(taskRows)
	if err != nil {
		return nil, store.NewStoreError("task", "list", "failed to scan tasks", MapError(err))
	}
	for _, g := range goals {
		g.Tasks = byGoal[g.ID]
		if g.Tasks == nil {
			g.Tasks = []domain.Task{}
		}
	}

	log.DebugContext(ctx, "listed goals", slog.Int("count", len(goals)))
	return goals, nil
}

// scanTasks groups task rows by goal id, preserving row order.
func scanTasks(rows *sql.Rows) (map[int64][]domain.Task, error) {
	out := make(map[int64][]domain.Task)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.GoalID, &t.Description, &t.StepNumber); err != nil {
			return nil, err
		}
		out[t.GoalID] = append(out[t.GoalID], t)
	}
	return out, rows.Err()
}

// Update implements store.GoalStore.Update. The stored task list is
// replaced as a whole.
func (s *GoalStore) Update(ctx context.Context, goal *domain.Goal) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := goal.Validate(); err != nil {
		log.WarnContext(ctx, "goal validation failed during update",
			slog.Int64("goal_id", goal.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	tasks := make([]domain.Task, len(goal.Tasks))
	copy(tasks, goal.Tasks)

	err := s.write(ctx, func(q store.DBTX) error {
		result, err := q.ExecContext(ctx, s.q(updateGoalQuery), goal.Title, goal.ComplexityScore, goal.ID)
		if err != nil {
			return store.NewStoreError("goal", "update", "failed to update goal", MapError(err))
		}
		if err := CheckRowsAffected(result, store.ErrGoalNotFound); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, s.q(deleteGoalTasksQuery), goal.ID); err != nil {
			return store.NewStoreError("task", "delete", "failed to clear tasks", MapError(err))
		}
		return s.insertTasks(ctx, q, goal.ID, tasks)
	})
	if err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			log.DebugContext(ctx, "goal not found for update", slog.Int64("goal_id", goal.ID))
		} else {
			log.ErrorContext(ctx, "failed to update goal",
				slog.Int64("goal_id", goal.ID),
				slog.String("error", err.Error()))
		}
		return err
	}

	goal.Tasks = tasks
	log.InfoContext(ctx, "goal updated",
		slog.Int64("goal_id", goal.ID),
		slog.Int("complexity_score", goal.ComplexityScore))
	return nil
}

// Delete implements store.GoalStore.Delete. Tasks are removed explicitly;
// the foreign key cascade covers rows written by other clients.
func (s *GoalStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.write(ctx, func(q store.DBTX) error {
		if _, err := q.ExecContext(ctx, s.q(deleteGoalTasksQuery), id); err != nil {
			return store.NewStoreError("task", "delete", "failed to delete tasks", MapError(err))
		}
		result, err := q.ExecContext(ctx, s.q(deleteGoalQuery), id)
		if err != nil {
			return store.NewStoreError("goal", "delete", "failed to delete goal", MapError(err))
		}
		return CheckRowsAffected(result, store.ErrGoalNotFound)
	})
	if err != nil {
		if !errors.Is(err, store.ErrGoalNotFound) {
			log.ErrorContext(ctx, "failed to delete goal",
				slog.Int64("goal_id", id),
				slog.String("error", err.Error()))
		}
		return err
	}

	log.InfoContext(ctx, "goal deleted", slog.Int64("goal_id", id))
	return nil
}

// DeleteAll implements store.GoalStore.DeleteAll.
func (s *GoalStore) DeleteAll(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted int64
	err := s.write(ctx, func(q store.DBTX) error {
		if _, err := q.ExecContext(ctx, deleteAllTasksQuery); err != nil {
			return store.NewStoreError("task", "delete_all", "failed to delete tasks", MapError(err))
		}
		result, err := q.ExecContext(ctx, deleteAllGoalsQuery)
		if err != nil {
			return store.NewStoreError("goal", "delete_all", "failed to delete goals", MapError(err))
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return store.NewStoreError("goal", "delete_all", "failed to count deleted goals", err)
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to delete all goals", slog.String("error", err.Error()))
		return 0, err
	}

	log.InfoContext(ctx, "all goals deleted", slog.Int64("count", deleted))
	return deleted, nil
}

// Ping implements store.GoalStore.Ping.
func (s *GoalStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, pingQuery).Scan(&one); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}
