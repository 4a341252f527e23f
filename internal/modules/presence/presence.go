// Package presence tracks which staff identities are currently online for
// each agency. Entries expire after ten minutes without a ping.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/referrio/core/internal/pkg/clock"
)

const staleAfter = 10 * time.Minute

// Record is one online staff member within an agency.
type Record struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	UpdatedAt   int64  `json:"updatedAt"`
	ConnectedAt int64  `json:"connectedAt"`
	IP          string `json:"-"`
}

// Registry is the in-process presence store: agency id → email → record.
type Registry struct {
	clk clock.Clock

	mu       sync.Mutex
	agencies map[string]map[string]Record
}

func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{
		clk:      clk,
		agencies: map[string]map[string]Record{},
	}
}

// Mark records a presence ping for email within agencyID.
func (r *Registry) Mark(agencyID, email, displayName, ip string) Record {
	now := clock.Millis(r.clk.Now())
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked(now)

	if _, ok := r.agencies[agencyID]; !ok {
		r.agencies[agencyID] = map[string]Record{}
	}

	prev, hasPrev := r.agencies[agencyID][email]
	connectedAt := now
	if hasPrev {
		connectedAt = prev.ConnectedAt
	}

	record := Record{
		Email:       email,
		DisplayName: displayName,
		UpdatedAt:   now,
		ConnectedAt: connectedAt,
		IP:          ip,
	}
	r.agencies[agencyID][email] = record
	return record
}

// Online lists the agency's online staff, most recently active first.
func (r *Registry) Online(agencyID string) []Record {
	now := clock.Millis(r.clk.Now())
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked(now)

	agency := r.agencies[agencyID]
	out := make([]Record, 0, len(agency))
	for _, item := range agency {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out
}

// Sweep drops stale entries; wired as a cron job.
func (r *Registry) Sweep() {
	now := clock.Millis(r.clk.Now())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupLocked(now)
}

func (r *Registry) cleanupLocked(now int64) {
	expireBefore := now - staleAfter.Milliseconds()
	for agencyID, agency := range r.agencies {
		for email, item := range agency {
			if item.UpdatedAt < expireBefore {
				delete(agency, email)
			}
		}
		if len(agency) == 0 {
			delete(r.agencies, agencyID)
		}
	}
}
