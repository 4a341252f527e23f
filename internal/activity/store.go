// Package activity implements the shared last-activity timestamp, the
// interaction tracker that writes it, and the inactivity timeout state
// machine that reads it.
package activity

import (
	"context"
	"strconv"
	"sync"
	"time"

	redisc "github.com/referrio/core/internal/pkg/redis"
)

// Store is the shared activity-timestamp slot for one session: a single
// millisecond value, last-writer-wins. Get returns 0 when no value exists.
type Store interface {
	Get(ctx context.Context) (int64, error)
	Set(ctx context.Context, millis int64) error
}

// RedisStore persists the timestamp under a per-session key so every client
// of the same session observes the same value.
type RedisStore struct {
	rc  *redisc.Client
	key string
	ttl time.Duration
}

const redisKeyPrefix = "referrio:last_activity:"

// NewRedisStore creates a store bound to sessionID. ttl bounds how long a
// stale slot outlives its session.
func NewRedisStore(rc *redisc.Client, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{rc: rc, key: redisKeyPrefix + sessionID, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context) (int64, error) {
	val, err := s.rc.Get(ctx, s.key)
	if err != nil || val == "" {
		return 0, err
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt slot reads as absent rather than failing the tick.
		return 0, nil
	}
	return millis, nil
}

func (s *RedisStore) Set(ctx context.Context, millis int64) error {
	return s.rc.Set(ctx, s.key, strconv.FormatInt(millis, 10), s.ttl)
}

// Delete removes the slot (used when the session ends).
func (s *RedisStore) Delete(ctx context.Context) error {
	return s.rc.Del(ctx, s.key)
}

// MemoryStore is an in-process Store for tests and single-node fallback.
type MemoryStore struct {
	mu     sync.Mutex
	millis int64
	writes int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Get(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.millis, nil
}

func (s *MemoryStore) Set(ctx context.Context, millis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.millis = millis
	s.writes++
	return nil
}

// Writes reports how many Set calls the store has received.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
