package generation

import (
	"fmt"
	"sync"
	"time"
)

const (
	minuteHorizon = time.Minute
	dayHorizon    = 24 * time.Hour

	// ReasonDailyLimit is returned when the day window is full.
	ReasonDailyLimit = "daily limit reached, retry after reset"
)

// GovernorConfig holds the admission limits. Both values must be positive.
type GovernorConfig struct {
	MaxPerMinute int
	MaxPerDay    int
}

// Usage is a snapshot of the governor's windows.
type Usage struct {
	RequestsThisMinute int `json:"requests_this_minute"`
	RequestsToday      int `json:"requests_today"`
	MaxPerMinute       int `json:"max_per_minute"`
	MaxPerDay          int `json:"max_per_day"`
}

// window is an oldest-first list of timestamps bounded by a horizon.
type window struct {
	horizon time.Duration
	stamps  []time.Time
}

// evict drops every timestamp that is horizon or more older than now.
func (w *window) evict(now time.Time) {
	cutoff := now.Add(-w.horizon)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

func (w *window) add(t time.Time) {
	w.stamps = append(w.stamps, t)
}

func (w *window) len() int {
	return len(w.stamps)
}

// Governor is an in-memory dual sliding-window rate limiter. It counts
// successful upstream calls in a 60 second window and a 24 hour window and
// rejects new work before the upstream is contacted.
//
// Governor is safe for concurrent use. Admit, Record and Usage behave as
// single-caller operations; Acquire additionally reserves a slot for an
// in-flight call so parallel callers cannot overshoot a limit.
type Governor struct {
	cfg GovernorConfig
	now func() time.Time

	mu      sync.Mutex
	minute  window
	day     window
	pending int
}

// GovernorOption customizes a Governor.
type GovernorOption func(*Governor)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) GovernorOption {
	return func(g *Governor) {
		g.now = now
	}
}

// NewGovernor creates a Governor with empty windows.
func NewGovernor(cfg GovernorConfig, opts ...GovernorOption) (*Governor, error) {
	if cfg.MaxPerMinute <= 0 || cfg.MaxPerDay <= 0 {
		return nil, fmt.Errorf("%w: rate limits must be positive (per_minute=%d, per_day=%d)",
			ErrInvalidConfig, cfg.MaxPerMinute, cfg.MaxPerDay)
	}

	g := &Governor{
		cfg:    cfg,
		now:    time.Now,
		minute: window{horizon: minuteHorizon},
		day:    window{horizon: dayHorizon},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// decision is the outcome of a capacity check.
type decision struct {
	allowed    bool
	reason     string
	retryAfter time.Duration
}

// Admit reports whether a new call may proceed. The minute window is
// checked before the day window. Rejection has no side effects.
func (g *Governor) Admit() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.decideLocked(g.now())
	return d.allowed, d.reason
}

// Record counts one successful call in both windows. Call it only after the
// upstream call succeeded.
func (g *Governor) Record() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.recordLocked(g.now())
}

// Usage returns the current window counts. Apart from pruning expired
// entries it has no side effects.
func (g *Governor) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.evictLocked(g.now())
	return Usage{
		RequestsThisMinute: g.minute.len(),
		RequestsToday:      g.day.len(),
		MaxPerMinute:       g.cfg.MaxPerMinute,
		MaxPerDay:          g.cfg.MaxPerDay,
	}
}

// Config returns the configured limits.
func (g *Governor) Config() GovernorConfig {
	return g.cfg
}

// Acquire admits a call and reserves a slot for it in one critical section.
// The returned Ticket must be committed on success or released otherwise.
// A rejection is returned as a *RateLimitError.
func (g *Governor) Acquire() (*Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.decideLocked(g.now())
	if !d.allowed {
		return nil, &RateLimitError{Reason: d.reason, RetryAfter: d.retryAfter}
	}

	g.pending++
	return &Ticket{g: g}, nil
}

func (g *Governor) evictLocked(now time.Time) {
	g.minute.evict(now)
	g.day.evict(now)
}

func (g *Governor) recordLocked(now time.Time) {
	g.evictLocked(now)
	g.minute.add(now)
	g.day.add(now)
}

func (g *Governor) decideLocked(now time.Time) decision {
	g.evictLocked(now)

	if g.minute.len()+g.pending >= g.cfg.MaxPerMinute {
		wait := g.minuteWaitLocked(now)
		secs := int(wait / time.Second)
		if secs == 0 && g.pending > 0 {
			// Reserved slots free up when their calls finish, not at a known time.
			secs = 1
		}
		return decision{
			reason:     fmt.Sprintf("wait ~%d seconds", secs),
			retryAfter: time.Duration(secs) * time.Second,
		}
	}

	if g.day.len()+g.pending >= g.cfg.MaxPerDay {
		var retryAfter time.Duration
		if g.day.len() > 0 {
			retryAfter = dayHorizon - now.Sub(g.day.stamps[0])
		}
		return decision{reason: ReasonDailyLimit, retryAfter: retryAfter}
	}

	return decision{allowed: true}
}

// minuteWaitLocked is the time until the oldest minute entry expires,
// never negative.
func (g *Governor) minuteWaitLocked(now time.Time) time.Duration {
	if g.minute.len() == 0 {
		return 0
	}
	wait := minuteHorizon - now.Sub(g.minute.stamps[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// Ticket is a reserved admission slot. Exactly one of Commit or Release
// takes effect; later calls are no-ops.
type Ticket struct {
	g    *Governor
	once sync.Once
}

// Commit records the call as successful.
func (t *Ticket) Commit() {
	t.once.Do(func() {
		t.g.mu.Lock()
		defer t.g.mu.Unlock()

		t.g.pending--
		t.g.recordLocked(t.g.now())
	})
}

// Release gives the slot back without recording anything.
func (t *Ticket) Release() {
	t.once.Do(func() {
		t.g.mu.Lock()
		defer t.g.mu.Unlock()

		t.g.pending--
	})
}
