package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Goal constraints.
const (
	MaxTitleLength    = 500
	RequiredStepCount = 5
	MinComplexity     = 1
	MaxComplexity     = 10
)

// Complexity levels derived from the complexity score.
const (
	ComplexityEasy   = "Easy"
	ComplexityMedium = "Medium"
	ComplexityHard   = "Hard"
)

// Goal is a user goal together with its AI-generated breakdown.
type Goal struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	ComplexityScore int       `json:"complexity_score"`
	CreatedAt       time.Time `json:"created_at"`
	Tasks           []Task    `json:"tasks"`
}

// Task is one ordered step of a goal. StepNumber starts at 1.
type Task struct {
	ID          int64  `json:"id"`
	GoalID      int64  `json:"-"`
	Description string `json:"description"`
	StepNumber  int    `json:"step_number"`
}

// NewGoal creates an unsaved goal from a breakdown. Steps are numbered in
// the order given.
func NewGoal(title string, complexityScore int, steps []string) (*Goal, error) {
	g := &Goal{CreatedAt: time.Now().UTC()}
	if err := g.ApplyBreakdown(title, complexityScore, steps); err != nil {
		return nil, err
	}
	return g, nil
}

// ApplyBreakdown replaces the title, score and tasks of g. Task IDs are
// reset; the store assigns new ones.
func (g *Goal) ApplyBreakdown(title string, complexityScore int, steps []string) error {
	tasks := make([]Task, len(steps))
	for i, s := range steps {
		tasks[i] = Task{
			GoalID:      g.ID,
			Description: strings.TrimSpace(s),
			StepNumber:  i + 1,
		}
	}

	candidate := Goal{
		ID:              g.ID,
		Title:           strings.TrimSpace(title),
		ComplexityScore: complexityScore,
		CreatedAt:       g.CreatedAt,
		Tasks:           tasks,
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	*g = candidate
	return nil
}

// Validate checks if the Goal has valid data.
func (g *Goal) Validate() error {
	if err := ValidateTitle(g.Title); err != nil {
		return err
	}

	if g.ComplexityScore < MinComplexity || g.ComplexityScore > MaxComplexity {
		return NewValidationError("complexity_score", "must be between 1 and 10", ErrValidation)
	}

	if len(g.Tasks) != RequiredStepCount {
		return NewValidationError("tasks", "must contain exactly 5 steps", ErrValidation)
	}

	for i, t := range g.Tasks {
		if strings.TrimSpace(t.Description) == "" {
			return NewValidationError("tasks", "cannot contain an empty step", ErrEmptyContent)
		}
		if t.StepNumber != i+1 {
			return NewValidationError("tasks", "must be numbered consecutively from 1", ErrValidation)
		}
	}

	return nil
}

// ValidateTitle checks a goal title as submitted by a user.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title", "is required", ErrEmptyContent)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError("title", "must be at most 500 characters", ErrValidation)
	}
	return nil
}

// Steps returns the task descriptions ordered by step number.
func (g *Goal) Steps() []string {
	out := make([]string, RequiredStepCount)
	n := 0
	for _, t := range g.Tasks {
		if t.StepNumber >= 1 && t.StepNumber <= RequiredStepCount {
			out[t.StepNumber-1] = t.Description
			if t.StepNumber > n {
				n = t.StepNumber
			}
		}
	}
	return out[:n]
}

// ComplexityLevel buckets the score: Easy up to 3, Medium up to 6, Hard above.
func ComplexityLevel(score int) string {
	switch {
	case score <= 3:
		return ComplexityEasy
	case score <= 6:
		return ComplexityMedium
	default:
		return ComplexityHard
	}
}
