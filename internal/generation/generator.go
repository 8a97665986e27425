package generation

import "context"

// Generator produces a goal breakdown from user text.
// This interface is the boundary between the goal service and the
// LLM-backed implementation, so callers can be tested with simple fakes.
type Generator interface {
	// BreakDown splits goalText into exactly five steps and scores its
	// complexity. modelID selects a model from the catalog; empty or unknown
	// identifiers fall back to the configured default.
	BreakDown(ctx context.Context, goalText, modelID string) (*Breakdown, error)
}

// Completer performs a single text completion against an external model.
// Errors are treated as opaque text and classified by Classify.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Breakdown is the validated result of a successful model call.
type Breakdown struct {
	// ComplexityScore is always within [MinComplexity, MaxComplexity].
	ComplexityScore int `json:"complexity_score"`

	// Tasks holds exactly RequiredTaskCount steps in order.
	Tasks []string `json:"tasks"`
}
