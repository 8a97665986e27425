package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/goalbreaker/goalbreaker-api/internal/redact"
	"github.com/goalbreaker/goalbreaker-api/internal/store"
)

// ModelSource lists the selectable models. *generation.Catalog implements it.
type ModelSource interface {
	Models() []generation.Model
	Default() string
}

// UsageReporter exposes rate limiter usage. *generation.Governor implements it.
type UsageReporter interface {
	Usage() generation.Usage
}

// ModelList is the model allow-list together with the default choice.
type ModelList struct {
	Models       []generation.Model `json:"models"`
	DefaultModel string             `json:"default_model"`
}

// GoalService provides goal-related operations.
type GoalService interface {
	// CreateGoal breaks title down with the chosen model and stores the goal
	// with its tasks.
	CreateGoal(ctx context.Context, title, model string) (*domain.Goal, error)

	// UpdateGoal regenerates the breakdown for a new title and replaces the
	// stored title, score and tasks. The goal must exist before the model is
	// called.
	UpdateGoal(ctx context.Context, id int64, title, model string) (*domain.Goal, error)

	// GetGoal retrieves a goal by its ID.
	GetGoal(ctx context.Context, id int64) (*domain.Goal, error)

	// ListGoals returns every goal, newest first.
	ListGoals(ctx context.Context) ([]*domain.Goal, error)

	// DeleteGoal removes a goal and its tasks.
	DeleteGoal(ctx context.Context, id int64) error

	// DeleteAllGoals removes every goal and returns how many were removed.
	DeleteAllGoals(ctx context.Context) (int64, error)

	// Models returns the selectable models.
	Models() ModelList

	// RateLimitStatus returns the current rate limiter usage.
	RateLimitStatus() generation.Usage

	// Health checks the goal store.
	Health(ctx context.Context) error
}

type goalServiceImpl struct {
	goals     store.GoalStore
	generator generation.Generator
	models    ModelSource
	usage     UsageReporter
	logger    *slog.Logger
}

// NewGoalService creates a new GoalService.
// It returns an error if any of the required dependencies are nil.
func NewGoalService(
	goals store.GoalStore,
	generator generation.Generator,
	models ModelSource,
	usage UsageReporter,
	l *slog.Logger,
) (GoalService, error) {
	if goals == nil {
		return nil, &GoalServiceError{Operation: "create_service", Message: "goal store cannot be nil"}
	}
	if generator == nil {
		return nil, &GoalServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if models == nil {
		return nil, &GoalServiceError{Operation: "create_service", Message: "model source cannot be nil"}
	}
	if usage == nil {
		return nil, &GoalServiceError{Operation: "create_service", Message: "usage reporter cannot be nil"}
	}
	if l == nil {
		l = slog.Default()
	}

	return &goalServiceImpl{
		goals:     goals,
		generator: generator,
		models:    models,
		usage:     usage,
		logger:    l.With(slog.String("component", "goal_service")),
	}, nil
}

// breakDown asks the generator for a breakdown of a validated title.
func (s *goalServiceImpl) breakDown(
	ctx context.Context,
	op, title, model string,
) (*generation.Breakdown, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	bd, err := s.generator.BreakDown(ctx, title, model)
	if err != nil {
		level := slog.LevelError
		var rl *generation.RateLimitError
		if errors.As(err, &rl) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "goal breakdown failed",
			slog.String("operation", op),
			slog.String("model", model),
			redact.ErrorAttr(err))
		return nil, NewGoalServiceError(op, "failed to generate goal breakdown",
			fmt.Errorf("%w: %w", ErrBreakdownFailed, err))
	}
	return bd, nil
}

func (s *goalServiceImpl) CreateGoal(ctx context.Context, title, model string) (*domain.Goal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	bd, err := s.breakDown(ctx, "create_goal", title, model)
	if err != nil {
		return nil, err
	}

	goal, err := domain.NewGoal(title, bd.ComplexityScore, bd.Tasks)
	if err != nil {
		log.ErrorContext(ctx, "breakdown produced an invalid goal", slog.String("error", err.Error()))
		return nil, NewGoalServiceError("create_goal", "breakdown produced an invalid goal", err)
	}

	if err := s.goals.Create(ctx, goal); err != nil {
		log.ErrorContext(ctx, "failed to save goal", redact.ErrorAttr(err))
		return nil, NewGoalServiceError("create_goal", "failed to save goal", err)
	}

	log.InfoContext(ctx, "goal created",
		slog.Int64("goal_id", goal.ID),
		slog.Int("complexity_score", goal.ComplexityScore))
	return goal, nil
}

func (s *goalServiceImpl) UpdateGoal(ctx context.Context, id int64, title, model string) (*domain.Goal, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if id <= 0 {
		return nil, ErrInvalidGoalID
	}
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrGoalNotFound) {
			log.ErrorContext(ctx, "failed to load goal for update",
				slog.Int64("goal_id", id),
				redact.ErrorAttr(err))
		}
		return nil, NewGoalServiceError("update_goal", "failed to load goal", err)
	}

	bd, err := s.breakDown(ctx, "update_goal", title, model)
	if err != nil {
		return nil, err
	}

	if err := goal.ApplyBreakdown(title, bd.ComplexityScore, bd.Tasks); err != nil {
		log.ErrorContext(ctx, "breakdown produced an invalid goal",
			slog.Int64("goal_id", id),
			slog.String("error", err.Error()))
		return nil, NewGoalServiceError("update_goal", "breakdown produced an invalid goal", err)
	}

	if err := s.goals.Update(ctx, goal); err != nil {
		if !errors.Is(err, store.ErrGoalNotFound) {
			log.ErrorContext(ctx, "failed to save updated goal",
				slog.Int64("goal_id", id),
				redact.ErrorAttr(err))
		}
		return nil, NewGoalServiceError("update_goal", "failed to save goal", err)
	}

	log.InfoContext(ctx, "goal updated",
		slog.Int64("goal_id", id),
		slog.Int("complexity_score", goal.ComplexityScore))
	return goal, nil
}

func (s *goalServiceImpl) GetGoal(ctx context.Context, id int64) (*domain.Goal, error) {
	if id <= 0 {
		return nil, ErrInvalidGoalID
	}

	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrGoalNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to retrieve goal",
				slog.Int64("goal_id", id),
				redact.ErrorAttr(err))
		}
		return nil, NewGoalServiceError("get_goal", "failed to retrieve goal", err)
	}
	return goal, nil
}

func (s *goalServiceImpl) ListGoals(ctx context.Context) ([]*domain.Goal, error) {
	goals, err := s.goals.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to list goals",
			redact.ErrorAttr(err))
		return nil, NewGoalServiceError("list_goals", "failed to list goals", err)
	}
	return goals, nil
}

func (s *goalServiceImpl) DeleteGoal(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidGoalID
	}

	if err := s.goals.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrGoalNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to delete goal",
				slog.Int64("goal_id", id),
				redact.ErrorAttr(err))
		}
		return NewGoalServiceError("delete_goal", "failed to delete goal", err)
	}
	return nil
}

func (s *goalServiceImpl) DeleteAllGoals(ctx context.Context) (int64, error) {
	n, err := s.goals.DeleteAll(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to delete all goals",
			redact.ErrorAttr(err))
		return 0, NewGoalServiceError("delete_all_goals", "failed to delete goals", err)
	}
	return n, nil
}

func (s *goalServiceImpl) Models() ModelList {
	return ModelList{
		Models:       s.models.Models(),
		DefaultModel: s.models.Default(),
	}
}

func (s *goalServiceImpl) RateLimitStatus() generation.Usage {
	return s.usage.Usage()
}

func (s *goalServiceImpl) Health(ctx context.Context) error {
	return s.goals.Ping(ctx)
}
