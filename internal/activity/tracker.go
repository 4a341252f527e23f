package activity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
	"go.uber.org/zap"
)

// Signal is one user-interaction event type observed by the tracker.
type Signal string

const (
	SignalPointerDown Signal = "pointerdown"
	SignalKeyDown     Signal = "keydown"
	SignalScroll      Signal = "scroll"
	SignalTouchStart  Signal = "touchstart"
)

// KnownSignal reports whether s is in the tracked signal set.
func KnownSignal(s Signal) bool {
	switch s {
	case SignalPointerDown, SignalKeyDown, SignalScroll, SignalTouchStart:
		return true
	}
	return false
}

// Tracker writes "now" to the shared Store on user interaction, throttled to
// one write per second. Signals off the protected route prefix are ignored,
// and a session already past the inactivity threshold is never resurrected
// here; only the explicit stay-logged-in action may do that.
type Tracker struct {
	store           Store
	clk             clock.Clock
	log             *zap.Logger
	protectedPrefix string
	threshold       time.Duration

	mu        sync.Mutex
	lastWrite int64 // millis of the last accepted write
}

// TrackerOptions tunes a Tracker. Zero values fall back to defaults.
type TrackerOptions struct {
	ProtectedPrefix string        // default "/portal"
	Threshold       time.Duration // default 5m, must match the machine's
}

// NewTracker builds a Tracker over the shared store.
func NewTracker(store Store, clk clock.Clock, log *zap.Logger, opts TrackerOptions) *Tracker {
	if opts.ProtectedPrefix == "" {
		opts.ProtectedPrefix = "/portal"
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Tracker{
		store:           store,
		clk:             clk,
		log:             log,
		protectedPrefix: opts.ProtectedPrefix,
		threshold:       opts.Threshold,
	}
}

// Seed writes an immediate baseline so a freshly loaded protected page always
// has a timestamp.
func (t *Tracker) Seed(ctx context.Context) {
	now := clock.Millis(t.clk.Now())
	t.mu.Lock()
	t.lastWrite = now
	t.mu.Unlock()
	if err := t.store.Set(ctx, now); err != nil {
		t.log.Warn("activity seed write failed", zap.Error(err))
	}
}

// Observe handles one interaction signal raised on path.
func (t *Tracker) Observe(ctx context.Context, sig Signal, path string) {
	if !KnownSignal(sig) {
		return
	}
	if !strings.HasPrefix(path, t.protectedPrefix) {
		return
	}

	now := clock.Millis(t.clk.Now())

	last, err := t.store.Get(ctx)
	if err != nil {
		t.log.Warn("activity read failed", zap.Error(err))
		return
	}
	if last > 0 && now-last >= t.threshold.Milliseconds() {
		// Session already expired; a stray signal must not revive it.
		return
	}

	t.mu.Lock()
	if now-t.lastWrite < time.Second.Milliseconds() {
		t.mu.Unlock()
		return
	}
	t.lastWrite = now
	t.mu.Unlock()

	if err := t.store.Set(ctx, now); err != nil {
		t.log.Warn("activity write failed", zap.Error(err))
	}
}
