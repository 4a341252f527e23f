package activity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
	"github.com/referrio/core/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type machineHarness struct {
	store    *MemoryStore
	clk      *clock.Fake
	machine  *Machine
	logouts  atomic.Int32
	pings    atomic.Int32
	redirect atomic.Value // string
}

func newMachineHarness(agencyID string) *machineHarness {
	h := &machineHarness{
		store: NewMemoryStore(),
		clk:   clock.NewFake(trackerStart),
	}
	h.machine = NewMachine(MachineConfig{
		Store:    h.store,
		Clock:    h.clk,
		Log:      zap.NewNop(),
		AgencyID: agencyID,
		Logout: func(ctx context.Context) error {
			h.logouts.Add(1)
			return nil
		},
		Redirect: func(reason string) { h.redirect.Store(reason) },
		Ping: func(ctx context.Context, agencyID string) error {
			h.pings.Add(1)
			return nil
		},
	})
	return h
}

func (h *machineHarness) markActivityNow(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.Set(context.Background(), clock.Millis(h.clk.Now())))
}

func TestMachineWarningCountdown(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	h.clk.Advance(4*time.Minute + 50*time.Second)
	h.machine.Tick(ctx)
	assert.Equal(t, StateWarning, h.machine.State())
	assert.Equal(t, 10, h.machine.RemainingSeconds())

	h.clk.Advance(5 * time.Second)
	h.machine.Tick(ctx)
	assert.Equal(t, StateWarning, h.machine.State())
	assert.Equal(t, 5, h.machine.RemainingSeconds())
}

func TestMachineForceLogoutExactlyOnce(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	h.clk.Advance(5*time.Minute + time.Second)
	h.machine.Tick(ctx)

	assert.Equal(t, StateLoggingOut, h.machine.State())
	assert.Equal(t, "timeout", h.redirect.Load())
	select {
	case <-h.machine.Done():
	default:
		t.Fatal("done channel not closed after logout")
	}
	require.Eventually(t, func() bool { return h.logouts.Load() == 1 },
		time.Second, 10*time.Millisecond)

	// Further ticks and explicit logout requests must not fire again.
	h.machine.Tick(ctx)
	h.machine.LogOutNow(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), h.logouts.Load())
}

func TestMachineStayLoggedInResurrects(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	// Past the expiry edge but not yet ticked into LOGGING_OUT.
	h.clk.Advance(5*time.Minute + 30*time.Second)
	h.machine.StayLoggedIn(ctx)
	assert.Equal(t, StateActive, h.machine.State())

	h.machine.Tick(ctx)
	assert.Equal(t, StateActive, h.machine.State())
	assert.Zero(t, h.logouts.Load())

	last, err := h.store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(h.clk.Now()), last)
}

func TestMachineStayLoggedInFromWarning(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	h.clk.Advance(4*time.Minute + 55*time.Second)
	h.machine.Tick(ctx)
	require.Equal(t, StateWarning, h.machine.State())

	h.machine.StayLoggedIn(ctx)
	assert.Equal(t, StateActive, h.machine.State())
	assert.Zero(t, h.machine.RemainingSeconds())
}

func TestMachineStayLoggedInAfterLogoutIsNoop(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	h.clk.Advance(6 * time.Minute)
	h.machine.Tick(ctx)
	require.Equal(t, StateLoggingOut, h.machine.State())

	writes := h.store.Writes()
	h.machine.StayLoggedIn(ctx)
	assert.Equal(t, StateLoggingOut, h.machine.State())
	assert.Equal(t, writes, h.store.Writes(), "no activity write once logging out")
}

func TestMachinePingGating(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx := context.Background()
	h.markActivityNow(t)

	h.machine.Tick(ctx)
	require.Eventually(t, func() bool { return h.pings.Load() == 1 },
		time.Second, 10*time.Millisecond)

	// Within the ping interval: fresh activity but no second ping.
	h.clk.Advance(30 * time.Second)
	h.markActivityNow(t)
	h.machine.Tick(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), h.pings.Load())

	h.clk.Advance(31 * time.Second)
	h.markActivityNow(t)
	h.machine.Tick(ctx)
	require.Eventually(t, func() bool { return h.pings.Load() == 2 },
		time.Second, 10*time.Millisecond)
}

func TestMachineNoPingWhenStaleOrDefault(t *testing.T) {
	ctx := context.Background()

	// Activity older than the fresh window keeps the machine ACTIVE but quiet.
	h := newMachineHarness("sunrise")
	h.markActivityNow(t)
	h.clk.Advance(90 * time.Second)
	h.machine.Tick(ctx)
	assert.Equal(t, StateActive, h.machine.State())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.pings.Load())

	// The reserved agency never pings.
	h = newMachineHarness(tenant.Default)
	h.markActivityNow(t)
	h.machine.Tick(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.pings.Load())
}

func TestMachineRunSeedsEmptyStore(t *testing.T) {
	h := newMachineHarness("sunrise")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.machine.Run(ctx)
	require.Eventually(t, func() bool { return h.store.Writes() == 1 },
		time.Second, 10*time.Millisecond)

	last, err := h.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(h.clk.Now()), last)
}
