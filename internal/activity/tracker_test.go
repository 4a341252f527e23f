package activity

import (
	"context"
	"testing"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var trackerStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestTracker(store Store, clk clock.Clock) *Tracker {
	return NewTracker(store, clk, zap.NewNop(), TrackerOptions{})
}

func TestTrackerThrottlesBursts(t *testing.T) {
	store := NewMemoryStore()
	clk := clock.NewFake(trackerStart)
	tracker := newTestTracker(store, clk)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		tracker.Observe(ctx, SignalPointerDown, "/portal/referrals")
	}
	assert.Equal(t, 1, store.Writes(), "a burst within one second collapses to a single write")

	clk.Advance(1100 * time.Millisecond)
	tracker.Observe(ctx, SignalKeyDown, "/portal/referrals")
	assert.Equal(t, 2, store.Writes())

	last, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(clk.Now()), last)
}

func TestTrackerIgnoresUnprotectedPaths(t *testing.T) {
	store := NewMemoryStore()
	tracker := newTestTracker(store, clock.NewFake(trackerStart))
	ctx := context.Background()

	tracker.Observe(ctx, SignalPointerDown, "/about")
	tracker.Observe(ctx, SignalScroll, "/")
	tracker.Observe(ctx, SignalKeyDown, "/login")
	assert.Zero(t, store.Writes())

	tracker.Observe(ctx, SignalTouchStart, "/portal/settings")
	assert.Equal(t, 1, store.Writes())
}

func TestTrackerIgnoresUnknownSignals(t *testing.T) {
	store := NewMemoryStore()
	tracker := newTestTracker(store, clock.NewFake(trackerStart))

	tracker.Observe(context.Background(), Signal("mousemove"), "/portal/referrals")
	assert.Zero(t, store.Writes())
}

func TestTrackerDoesNotReviveExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	clk := clock.NewFake(trackerStart)
	tracker := newTestTracker(store, clk)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, clock.Millis(clk.Now())))
	clk.Advance(6 * time.Minute)

	tracker.Observe(ctx, SignalPointerDown, "/portal/referrals")
	assert.Equal(t, 1, store.Writes(), "signals past the threshold are dropped")

	last, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(trackerStart), last, "timestamp stays at the expired value")
}

func TestTrackerSeedWritesBaseline(t *testing.T) {
	store := NewMemoryStore()
	clk := clock.NewFake(trackerStart)
	tracker := newTestTracker(store, clk)
	ctx := context.Background()

	tracker.Seed(ctx)
	assert.Equal(t, 1, store.Writes())

	last, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(trackerStart), last)

	// The seed counts against the throttle window.
	tracker.Observe(ctx, SignalPointerDown, "/portal/referrals")
	assert.Equal(t, 1, store.Writes())
}
