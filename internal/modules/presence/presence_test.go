package presence

import (
	"testing"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var presenceStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRegistryMarkAndOnline(t *testing.T) {
	clk := clock.NewFake(presenceStart)
	reg := NewRegistry(clk)

	reg.Mark("sunrise", "alice@sunrise.org", "Alice", "10.0.0.1")
	clk.Advance(time.Minute)
	reg.Mark("sunrise", "bob@sunrise.org", "Bob", "10.0.0.2")
	reg.Mark("lakeside", "carol@lakeside.org", "", "")

	online := reg.Online("sunrise")
	require.Len(t, online, 2)
	assert.Equal(t, "bob@sunrise.org", online[0].Email, "most recent ping first")
	assert.Equal(t, "alice@sunrise.org", online[1].Email)

	assert.Len(t, reg.Online("lakeside"), 1)
	assert.Empty(t, reg.Online("riverbend"))
}

func TestRegistryMarkPreservesConnectedAt(t *testing.T) {
	clk := clock.NewFake(presenceStart)
	reg := NewRegistry(clk)

	first := reg.Mark("sunrise", "alice@sunrise.org", "Alice", "")
	clk.Advance(3 * time.Minute)
	second := reg.Mark("sunrise", "alice@sunrise.org", "Alice", "")

	assert.Equal(t, first.ConnectedAt, second.ConnectedAt)
	assert.Greater(t, second.UpdatedAt, first.UpdatedAt)
}

func TestRegistrySweepDropsStaleEntries(t *testing.T) {
	clk := clock.NewFake(presenceStart)
	reg := NewRegistry(clk)

	reg.Mark("sunrise", "alice@sunrise.org", "Alice", "")
	clk.Advance(6 * time.Minute)
	reg.Mark("sunrise", "bob@sunrise.org", "Bob", "")

	// Eleven minutes after alice's last ping, five after bob's.
	clk.Advance(5 * time.Minute)
	reg.Sweep()

	online := reg.Online("sunrise")
	require.Len(t, online, 1)
	assert.Equal(t, "bob@sunrise.org", online[0].Email)

	clk.Advance(11 * time.Minute)
	reg.Sweep()
	assert.Empty(t, reg.Online("sunrise"))
}
