package activity

import (
	"context"
	"sync"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
	"github.com/referrio/core/internal/tenant"
	"go.uber.org/zap"
)

// Machine states.
type State string

const (
	StateActive     State = "ACTIVE"
	StateWarning    State = "WARNING"
	StateLoggingOut State = "LOGGING_OUT" // terminal for the session instance
)

// Default timing parameters.
const (
	DefaultThreshold   = 5 * time.Minute  // T: inactivity before forced logout
	DefaultWarningLead = 20 * time.Second // W: warning shown before the edge
	pingInterval       = 60 * time.Second
	pingFreshWindow    = 60 * time.Second
)

// MachineConfig wires a Machine to its collaborators. Logout and Ping are
// fire-and-forget: they run detached and must never block a tick.
type MachineConfig struct {
	Store       Store
	Clock       clock.Clock
	Log         *zap.Logger
	AgencyID    string
	Threshold   time.Duration // 0 → DefaultThreshold
	WarningLead time.Duration // 0 → DefaultWarningLead

	// Logout performs the server-side logout call.
	Logout func(ctx context.Context) error
	// Redirect navigates to the login entry point with a reason flag.
	Redirect func(reason string)
	// Ping marks the identity online for the agency.
	Ping func(ctx context.Context, agencyID string) error
}

// Machine is the session timeout state machine. It evaluates the shared
// activity timestamp on a one-second tick and decides when to warn and when
// to force logout. All exported methods are safe for concurrent use.
type Machine struct {
	cfg         MachineConfig
	threshold   time.Duration
	warningLead time.Duration

	mu        sync.Mutex
	state     State
	remaining int
	lastPing  time.Time
	done      chan struct{}
	stopOnce  sync.Once
}

// NewMachine builds a Machine in the ACTIVE state.
func NewMachine(cfg MachineConfig) *Machine {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	lead := cfg.WarningLead
	if lead == 0 {
		lead = DefaultWarningLead
	}
	return &Machine{
		cfg:         cfg,
		threshold:   threshold,
		warningLead: lead,
		state:       StateActive,
		done:        make(chan struct{}),
	}
}

// Run seeds the store if empty and ticks every second until ctx is cancelled
// or the machine reaches LOGGING_OUT. An in-flight logout call is detached
// and survives cancellation.
func (m *Machine) Run(ctx context.Context) {
	m.seed(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// seed writes "now" when the store holds no timestamp yet, so the machine
// starts from a defined baseline.
func (m *Machine) seed(ctx context.Context) {
	last, err := m.cfg.Store.Get(ctx)
	if err != nil {
		m.cfg.Log.Warn("activity seed read failed", zap.Error(err))
		return
	}
	if last == 0 {
		if err := m.cfg.Store.Set(ctx, clock.Millis(m.cfg.Clock.Now())); err != nil {
			m.cfg.Log.Warn("activity seed write failed", zap.Error(err))
		}
	}
}

// Tick performs one evaluation. It always reads the store fresh; a stale
// cached elapsed value could advance a logout, a fresh read only delays it.
func (m *Machine) Tick(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateLoggingOut {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	now := m.cfg.Clock.Now()
	last, err := m.cfg.Store.Get(ctx)
	if err != nil {
		m.cfg.Log.Warn("activity read failed", zap.Error(err))
		return
	}
	if last == 0 {
		last = clock.Millis(now)
	}
	elapsed := time.Duration(clock.Millis(now)-last) * time.Millisecond

	switch {
	case elapsed >= m.threshold:
		m.forceLogout(ctx, "timeout")
	case elapsed >= m.threshold-m.warningLead:
		remaining := int((m.threshold - elapsed + time.Second - 1) / time.Second)
		m.mu.Lock()
		m.state = StateWarning
		m.remaining = remaining
		m.mu.Unlock()
	default:
		m.mu.Lock()
		m.state = StateActive
		m.remaining = 0
		m.mu.Unlock()
		m.maybePing(ctx, now, elapsed)
	}
}

// maybePing fires a best-effort presence ping while the session is fresh.
func (m *Machine) maybePing(ctx context.Context, now time.Time, elapsed time.Duration) {
	if m.cfg.Ping == nil || m.cfg.AgencyID == tenant.Default {
		return
	}
	if elapsed >= pingFreshWindow {
		return
	}

	m.mu.Lock()
	if !m.lastPing.IsZero() && now.Sub(m.lastPing) < pingInterval {
		m.mu.Unlock()
		return
	}
	m.lastPing = now
	m.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		if err := m.cfg.Ping(detached, m.cfg.AgencyID); err != nil {
			m.cfg.Log.Warn("presence ping failed", zap.Error(err))
		}
	}()
}

// forceLogout transitions to LOGGING_OUT exactly once: the logout call is
// fired detached, the redirect hook runs, and ticking stops.
func (m *Machine) forceLogout(ctx context.Context, reason string) {
	m.mu.Lock()
	if m.state == StateLoggingOut {
		m.mu.Unlock()
		return
	}
	m.state = StateLoggingOut
	m.remaining = 0
	m.mu.Unlock()

	if m.cfg.Logout != nil {
		detached := context.WithoutCancel(ctx)
		go func() {
			if err := m.cfg.Logout(detached); err != nil {
				m.cfg.Log.Warn("logout call failed", zap.Error(err))
			}
		}()
	}
	if m.cfg.Redirect != nil {
		m.cfg.Redirect(reason)
	}
	m.stopOnce.Do(func() { close(m.done) })
}

// StayLoggedIn is the warning dialog's explicit keep-alive. It writes fresh
// activity and returns to ACTIVE unconditionally, even past the expiry edge;
// it is the sole path allowed to resurrect a session. No-op once the machine
// has entered LOGGING_OUT.
func (m *Machine) StayLoggedIn(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateLoggingOut {
		m.mu.Unlock()
		return
	}
	m.state = StateActive
	m.remaining = 0
	m.mu.Unlock()

	if err := m.cfg.Store.Set(ctx, clock.Millis(m.cfg.Clock.Now())); err != nil {
		m.cfg.Log.Warn("stay-logged-in write failed", zap.Error(err))
	}
}

// LogOutNow is the warning dialog's explicit logout.
func (m *Machine) LogOutNow(ctx context.Context) {
	m.forceLogout(ctx, "manual")
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RemainingSeconds returns the countdown shown while in WARNING.
func (m *Machine) RemainingSeconds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Done is closed once the machine reaches LOGGING_OUT.
func (m *Machine) Done() <-chan struct{} { return m.done }
