// Package portalsession runs one activity tracker and timeout state machine
// per signed-in session. The portal client reports interaction signals and
// polls machine state; the machine decides when to warn and when to end the
// session.
package portalsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/referrio/core/internal/activity"
	"github.com/referrio/core/internal/config"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/modules/presence"
	"github.com/referrio/core/internal/pkg/clock"
	redisc "github.com/referrio/core/internal/pkg/redis"
	sessionpkg "github.com/referrio/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type entry struct {
	tracker *activity.Tracker
	machine *activity.Machine
	cancel  context.CancelFunc

	mu     sync.Mutex
	reason string
}

func (e *entry) setReason(r string) {
	e.mu.Lock()
	e.reason = r
	e.mu.Unlock()
}

func (e *entry) getReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reason
}

// Manager owns the per-session machinery.
type Manager struct {
	db  *gorm.DB
	rc  *redisc.Client
	reg *presence.Registry
	clk clock.Clock
	log *zap.Logger
	cfg config.SessionConfig

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(db *gorm.DB, rc *redisc.Client, reg *presence.Registry, clk clock.Clock, log *zap.Logger, cfg config.SessionConfig) *Manager {
	return &Manager{
		db:       db,
		rc:       rc,
		reg:      reg,
		clk:      clk,
		log:      log,
		cfg:      cfg,
		sessions: map[string]*entry{},
	}
}

func (m *Manager) threshold() time.Duration {
	return time.Duration(m.cfg.InactivityMinutes) * time.Minute
}

// ensure returns the session's entry, spinning up tracker and machine on
// first touch. The activity slot lives in Redis so every tab of the same
// session shares one timestamp.
func (m *Manager) ensure(rec *middleware.SessionRecord) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[rec.SessionID]; ok {
		return e
	}

	store := activity.NewRedisStore(m.rc, rec.SessionID, m.threshold()+time.Hour)
	tracker := activity.NewTracker(store, m.clk, m.log, activity.TrackerOptions{
		ProtectedPrefix: m.cfg.ProtectedPrefix,
		Threshold:       m.threshold(),
	})

	e := &entry{tracker: tracker}

	email, sessionID, agencyID := rec.Email, rec.SessionID, rec.AgencyID
	e.machine = activity.NewMachine(activity.MachineConfig{
		Store:       store,
		Clock:       m.clk,
		Log:         m.log,
		AgencyID:    agencyID,
		Threshold:   m.threshold(),
		WarningLead: time.Duration(m.cfg.WarningSeconds) * time.Second,
		Logout: func(ctx context.Context) error {
			err := sessionpkg.Revoke(m.db, email, sessionID, "timeout")
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		},
		Redirect: e.setReason,
		Ping: func(ctx context.Context, agency string) error {
			m.reg.Mark(agency, email, "", "")
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.machine.Run(ctx)

	tracker.Seed(context.Background())
	m.sessions[rec.SessionID] = e
	return e
}

// Drop tears down a session's machinery (explicit logout or sweep). The
// machine's detached logout call, if any, is not interrupted.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// SweepEnded removes entries whose machine has reached LOGGING_OUT; wired as
// a cron job so abandoned sessions do not pile up.
func (m *Manager) SweepEnded() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		select {
		case <-e.machine.Done():
			e.cancel()
			delete(m.sessions, id)
			removed++
		default:
		}
	}
	return removed
}

// Shutdown cancels every running machine.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		e.cancel()
		delete(m.sessions, id)
	}
}
