package api

import (
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
)

// GoalRequest is the payload for creating or updating a goal.
type GoalRequest struct {
	Title string `json:"title"           validate:"required,max=500"`
	Model string `json:"model,omitempty" validate:"omitempty,max=100"`
}

// TaskResponse is one step of a goal.
type TaskResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	StepNumber  int    `json:"step_number"`
}

// GoalResponse is a goal with its ordered tasks.
type GoalResponse struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	ComplexityScore int            `json:"complexity_score"`
	CreatedAt       time.Time      `json:"created_at"`
	Tasks           []TaskResponse `json:"tasks"`
}

// ModelResponse describes a selectable model. Default marks the model used
// when a request names none.
type ModelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RateLimitResponse reports the current limiter usage.
type RateLimitResponse struct {
	RequestsThisMinute int `json:"requests_this_minute"`
	RequestsToday      int `json:"requests_today"`
	MaxPerMinute       int `json:"max_per_minute"`
	MaxPerDay          int `json:"max_per_day"`
}

func goalToResponse(g *domain.Goal) GoalResponse {
	tasks := make([]TaskResponse, 0, len(g.Tasks))
	for _, t := range g.Tasks {
		tasks = append(tasks, TaskResponse{
			ID:          t.ID,
			Description: t.Description,
			StepNumber:  t.StepNumber,
		})
	}
	return GoalResponse{
		ID:              g.ID,
		Title:           g.Title,
		ComplexityScore: g.ComplexityScore,
		CreatedAt:       g.CreatedAt,
		Tasks:           tasks,
	}
}

func goalsToResponse(goals []*domain.Goal) []GoalResponse {
	out := make([]GoalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalToResponse(g))
	}
	return out
}

func modelsToResponse(models []generation.Model, defaultID string) []ModelResponse {
	out := make([]ModelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, ModelResponse{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Default:     m.ID == defaultID,
		})
	}
	return out
}

func usageToResponse(u generation.Usage) RateLimitResponse {
	return RateLimitResponse{
		RequestsThisMinute: u.RequestsThisMinute,
		RequestsToday:      u.RequestsToday,
		MaxPerMinute:       u.MaxPerMinute,
		MaxPerDay:          u.MaxPerDay,
	}
}
