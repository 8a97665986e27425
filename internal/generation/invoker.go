package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/goalbreaker/goalbreaker-api/internal/redact"
)

// Default invoker settings.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffUnit = time.Second
)

// InvokerConfig controls the retry loop.
type InvokerConfig struct {
	// MaxAttempts is the per-call attempt budget. Values below 1 mean 1.
	MaxAttempts int

	// BackoffUnit is the linear backoff step: attempt i sleeps (i+1) units.
	BackoffUnit time.Duration
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithSleeper replaces the backoff sleep, mostly for tests.
func WithSleeper(s Sleeper) InvokerOption {
	return func(inv *Invoker) {
		inv.sleep = s
	}
}

// WithPromptBuilder replaces the embedded prompt template.
func WithPromptBuilder(p *PromptBuilder) InvokerOption {
	return func(inv *Invoker) {
		inv.prompts = p
	}
}

// Invoker is the resilient, rate-limited Generator. It checks the governor
// once per call, retries transient failures with linear backoff and stops
// at the first terminal upstream failure.
type Invoker struct {
	completer Completer
	governor  *Governor
	catalog   *Catalog
	prompts   *PromptBuilder
	config    InvokerConfig
	sleep     Sleeper
	logger    *slog.Logger
}

var _ Generator = (*Invoker)(nil)

// NewInvoker wires an Invoker. completer, governor and catalog are required.
func NewInvoker(
	completer Completer,
	governor *Governor,
	catalog *Catalog,
	config InvokerConfig,
	l *slog.Logger,
	opts ...InvokerOption,
) (*Invoker, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer cannot be nil", ErrInvalidConfig)
	}
	if governor == nil {
		return nil, fmt.Errorf("%w: governor cannot be nil", ErrInvalidConfig)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog cannot be nil", ErrInvalidConfig)
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.BackoffUnit <= 0 {
		config.BackoffUnit = DefaultBackoffUnit
	}
	if l == nil {
		l = slog.Default()
	}

	inv := &Invoker{
		completer: completer,
		governor:  governor,
		catalog:   catalog,
		config:    config,
		sleep:     sleepContext,
		logger:    l.With(slog.String("component", "invoker")),
	}
	for _, opt := range opts {
		opt(inv)
	}

	if inv.prompts == nil {
		p, err := NewPromptBuilder("")
		if err != nil {
			return nil, err
		}
		inv.prompts = p
	}

	return inv, nil
}

// BreakDown implements Generator using the configured attempt budget.
func (inv *Invoker) BreakDown(ctx context.Context, goalText, modelID string) (*Breakdown, error) {
	return inv.Invoke(ctx, goalText, modelID, inv.config.MaxAttempts)
}

// attempt describes one call to the external model.
type attempt struct {
	goal  string
	model string
	index int
}

// Invoke runs one logical request with an explicit attempt budget.
//
// Returned errors:
//   - ErrEmptyGoal for blank input
//   - *RateLimitError when the governor rejects the request
//   - *UpstreamError for a terminal classified failure
//   - the context error when ctx is cancelled
//   - otherwise the last raw error once the budget is spent
func (inv *Invoker) Invoke(ctx context.Context, goalText, modelID string, maxAttempts int) (*Breakdown, error) {
	log := logger.FromContextOrDefault(ctx, inv.logger)

	goal := strings.TrimSpace(goalText)
	if goal == "" {
		return nil, ErrEmptyGoal
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	ticket, err := inv.governor.Acquire()
	if err != nil {
		log.WarnContext(ctx, "request rejected by governor", slog.String("reason", err.Error()))
		return nil, err
	}
	defer ticket.Release()

	model := inv.catalog.Resolve(modelID)
	if modelID != "" && model != modelID {
		log.InfoContext(ctx, "unknown model requested, using default",
			slog.String("requested_model", modelID),
			slog.String("model", model))
	}

	prompt, err := inv.prompts.Build(goal)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		a := attempt{goal: goal, model: model, index: i}

		result, err := inv.try(ctx, a, prompt)
		if err == nil {
			ticket.Commit()
			log.DebugContext(ctx, "breakdown generated",
				slog.String("model", model),
				slog.Int("attempt", i+1),
				slog.Int("complexity_score", result.ComplexityScore))
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("breakdown cancelled: %w", ctxErr)
		}

		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			log.WarnContext(ctx, "terminal upstream failure",
				slog.String("model", model),
				slog.Int("attempt", i+1),
				slog.String("kind", upstream.Kind.String()),
				slog.String("error", redact.String(upstream.Raw)))
			return nil, upstream
		}

		lastErr = err
		log.WarnContext(ctx, "transient failure, will retry if budget allows",
			slog.String("model", model),
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", maxAttempts),
			redact.ErrorAttr(err))

		if i < maxAttempts-1 {
			delay := time.Duration(i+1) * inv.config.BackoffUnit
			if err := inv.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("breakdown cancelled: %w", err)
			}
		}
	}

	log.ErrorContext(ctx, "breakdown attempts exhausted",
		slog.String("model", model),
		slog.Int("attempts", maxAttempts),
		redact.ErrorAttr(lastErr))

	return nil, lastErr
}

// try performs one attempt. Completer errors are classified; terminal kinds
// come back as *UpstreamError and everything else unchanged.
func (inv *Invoker) try(ctx context.Context, a attempt, prompt string) (*Breakdown, error) {
	text, err := inv.completer.Complete(ctx, a.model, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c := Classify(err.Error())
		if !c.Retryable() {
			return nil, newUpstreamError(c)
		}
		return nil, err
	}

	return ParseBreakdown(text)
}

// Governor returns the governor shared by this invoker.
func (inv *Invoker) Governor() *Governor {
	return inv.governor
}

// Catalog returns the model allow-list.
func (inv *Invoker) Catalog() *Catalog {
	return inv.catalog
}
