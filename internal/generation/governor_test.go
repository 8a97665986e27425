package generation_test

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock safe for concurrent use.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGovernor(t *testing.T, perMinute, perDay int) (*generation.Governor, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	g, err := generation.NewGovernor(
		generation.GovernorConfig{MaxPerMinute: perMinute, MaxPerDay: perDay},
		generation.WithClock(clock.Now),
	)
	require.NoError(t, err)
	return g, clock
}

func TestNewGovernor_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  generation.GovernorConfig
	}{
		{"zero per minute", generation.GovernorConfig{MaxPerMinute: 0, MaxPerDay: 10}},
		{"zero per day", generation.GovernorConfig{MaxPerMinute: 10, MaxPerDay: 0}},
		{"negative", generation.GovernorConfig{MaxPerMinute: -1, MaxPerDay: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := generation.NewGovernor(tt.cfg)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestGovernor_AdmitEmpty(t *testing.T) {
	g, _ := newTestGovernor(t, 10, 500)

	allowed, reason := g.Admit()
	assert.True(t, allowed)
	assert.Empty(t, reason)
}

func TestGovernor_MinuteWindow(t *testing.T) {
	g, clock := newTestGovernor(t, 3, 500)

	for i := 0; i < 3; i++ {
		allowed, _ := g.Admit()
		require.True(t, allowed)
		g.Record()
	}

	allowed, reason := g.Admit()
	assert.False(t, allowed)
	assert.Equal(t, "wait ~60 seconds", reason)

	clock.Advance(10*time.Second + 500*time.Millisecond)
	allowed, reason = g.Admit()
	assert.False(t, allowed)
	assert.Equal(t, "wait ~49 seconds", reason, "seconds are rounded down")

	clock.Advance(51 * time.Second)
	allowed, reason = g.Admit()
	assert.True(t, allowed, "entries older than the horizon are evicted")
	assert.Empty(t, reason)
}

func TestGovernor_EntryExpiresExactlyAtHorizon(t *testing.T) {
	g, clock := newTestGovernor(t, 1, 500)
	g.Record()

	clock.Advance(59 * time.Second)
	allowed, reason := g.Admit()
	assert.False(t, allowed)
	assert.Equal(t, "wait ~1 seconds", reason)

	clock.Advance(time.Second)
	allowed, _ = g.Admit()
	assert.True(t, allowed)
}

func TestGovernor_WaitUsesOldestEntry(t *testing.T) {
	g, clock := newTestGovernor(t, 2, 500)

	g.Record()
	clock.Advance(20 * time.Second)
	g.Record()
	clock.Advance(5 * time.Second)

	_, reason := g.Admit()
	assert.Equal(t, "wait ~35 seconds", reason)
}

func TestGovernor_DayWindow(t *testing.T) {
	g, clock := newTestGovernor(t, 2, 4)

	for i := 0; i < 4; i++ {
		if i > 0 && i%2 == 0 {
			clock.Advance(61 * time.Second)
		}
		allowed, _ := g.Admit()
		require.True(t, allowed)
		g.Record()
	}

	// Minute window is checked first.
	allowed, reason := g.Admit()
	assert.False(t, allowed)
	assert.Contains(t, reason, "wait ~")

	clock.Advance(61 * time.Second)
	allowed, reason = g.Admit()
	assert.False(t, allowed)
	assert.Equal(t, generation.ReasonDailyLimit, reason)
	assert.Equal(t, "daily limit reached, retry after reset", reason)

	clock.Advance(24 * time.Hour)
	allowed, _ = g.Admit()
	assert.True(t, allowed)
}

func TestGovernor_RejectionHasNoSideEffects(t *testing.T) {
	g, _ := newTestGovernor(t, 1, 500)
	g.Record()

	before := g.Usage()
	for i := 0; i < 5; i++ {
		allowed, _ := g.Admit()
		assert.False(t, allowed)
	}
	assert.Equal(t, before, g.Usage())
}

func TestGovernor_UsageIsIdempotent(t *testing.T) {
	g, clock := newTestGovernor(t, 10, 500)
	g.Record()
	clock.Advance(30 * time.Second)
	g.Record()
	clock.Advance(45 * time.Second)

	first := g.Usage()
	second := g.Usage()
	third := g.Usage()

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
	assert.Equal(t, generation.Usage{
		RequestsThisMinute: 1,
		RequestsToday:      2,
		MaxPerMinute:       10,
		MaxPerDay:          500,
	}, first)
}

func TestGovernor_CountsNeverExceedLimits(t *testing.T) {
	const perMinute, perDay = 5, 40
	g, clock := newTestGovernor(t, perMinute, perDay)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		clock.Advance(time.Duration(rng.Intn(30_000)) * time.Millisecond)
		if rng.Intn(50) == 0 {
			clock.Advance(time.Duration(rng.Intn(6)) * time.Hour)
		}

		allowed, reason := g.Admit()
		if !allowed {
			assert.NotEmpty(t, reason)
			continue
		}
		g.Record()

		u := g.Usage()
		require.LessOrEqual(t, u.RequestsThisMinute, perMinute)
		require.LessOrEqual(t, u.RequestsToday, perDay)
	}
}

func TestGovernor_Acquire(t *testing.T) {
	t.Run("reservations count against capacity", func(t *testing.T) {
		g, _ := newTestGovernor(t, 2, 500)

		first, err := g.Acquire()
		require.NoError(t, err)
		second, err := g.Acquire()
		require.NoError(t, err)

		_, err = g.Acquire()
		var rle *generation.RateLimitError
		require.ErrorAs(t, err, &rle)
		assert.ErrorIs(t, err, generation.ErrRateLimited)
		assert.Equal(t, "wait ~1 seconds", rle.Reason, "in-flight calls hold every slot")
		assert.Equal(t, time.Second, rle.RetryAfter)

		first.Release()
		third, err := g.Acquire()
		require.NoError(t, err)

		second.Commit()
		third.Commit()
		assert.Equal(t, 2, g.Usage().RequestsThisMinute)
	})

	t.Run("commit and release are idempotent", func(t *testing.T) {
		g, _ := newTestGovernor(t, 2, 500)

		ticket, err := g.Acquire()
		require.NoError(t, err)
		ticket.Commit()
		ticket.Commit()
		ticket.Release()

		assert.Equal(t, 1, g.Usage().RequestsThisMinute)

		allowed, _ := g.Admit()
		assert.True(t, allowed, "committed ticket no longer holds a reservation")
	})

	t.Run("release records nothing", func(t *testing.T) {
		g, _ := newTestGovernor(t, 1, 500)

		ticket, err := g.Acquire()
		require.NoError(t, err)
		ticket.Release()

		assert.Equal(t, 0, g.Usage().RequestsThisMinute)
		allowed, _ := g.Admit()
		assert.True(t, allowed)
	})

	t.Run("retry after hint", func(t *testing.T) {
		g, clock := newTestGovernor(t, 1, 500)
		g.Record()
		clock.Advance(15 * time.Second)

		_, err := g.Acquire()
		var rle *generation.RateLimitError
		require.True(t, errors.As(err, &rle))
		assert.Equal(t, 45*time.Second, rle.RetryAfter)
		assert.Equal(t, "rate limit exceeded: wait ~45 seconds", rle.Error())
	})
}

func TestGovernor_ConcurrentAcquire(t *testing.T) {
	const limit = 10
	g, _ := newTestGovernor(t, limit, 500)

	var admitted, rejected atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ticket, err := g.Acquire()
			if err != nil {
				rejected.Add(1)
				return
			}
			admitted.Add(1)
			ticket.Commit()
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(limit), admitted.Load())
	assert.Equal(t, int32(40), rejected.Load())
	assert.Equal(t, limit, g.Usage().RequestsThisMinute)
}
