package service

import (
	"context"
	"database/sql"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockGoalStore mocks the store.GoalStore interface
type MockGoalStore struct {
	mock.Mock
}

var _ store.GoalStore = (*MockGoalStore)(nil)

func (m *MockGoalStore) Create(ctx context.Context, goal *domain.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockGoalStore) GetByID(ctx context.Context, id int64) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	goal, _ := args.Get(0).(*domain.Goal)
	return goal, args.Error(1)
}

func (m *MockGoalStore) List(ctx context.Context) ([]*domain.Goal, error) {
	args := m.Called(ctx)
	goals, _ := args.Get(0).([]*domain.Goal)
	return goals, args.Error(1)
}

func (m *MockGoalStore) Update(ctx context.Context, goal *domain.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockGoalStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGoalStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGoalStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGoalStore) WithTx(tx *sql.Tx) store.GoalStore {
	return m
}

// MockGenerator mocks the generation.Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) BreakDown(ctx context.Context, goalText, modelID string) (*generation.Breakdown, error) {
	args := m.Called(ctx, goalText, modelID)
	bd, _ := args.Get(0).(*generation.Breakdown)
	return bd, args.Error(1)
}

type stubModels struct {
	models []generation.Model
	def    string
}

func (s stubModels) Models() []generation.Model { return s.models }
func (s stubModels) Default() string { return s.def }

type stubUsage generation.Usage

func (s stubUsage) Usage() generation.Usage { return generation.Usage(s) }
