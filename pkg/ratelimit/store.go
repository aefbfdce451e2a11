package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes the per-API quota keys in Redis.
const RedisKeyPrefix = "firstnames:quota:"

// StateStore persists quota state per API name.
type StateStore interface {
	// Get returns the stored state, or nil if none is known.
	Get(ctx context.Context, api string) (*QuotaState, error)

	// Set stores state for api.
	Set(ctx context.Context, api string, state *QuotaState) error
}

// MemoryStore keeps quota state in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]QuotaState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]QuotaState)}
}

// Get implements StateStore.
func (m *MemoryStore) Get(_ context.Context, api string) (*QuotaState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[api]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Set implements StateStore.
func (m *MemoryStore) Set(_ context.Context, api string, state *QuotaState) error {
	if state == nil {
		return fmt.Errorf("quota state cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[api] = *state
	return nil
}

// RedisStore shares quota state between processes through Redis. Entries
// expire when the quota window resets.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Key returns the Redis key holding the state of api.
func Key(api string) string {
	return RedisKeyPrefix + api
}

// Get implements StateStore.
func (s *RedisStore) Get(ctx context.Context, api string) (*QuotaState, error) {
	data, err := s.redis.Get(ctx, Key(api)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var state QuotaState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode quota state: %w", err)
	}
	return &state, nil
}

// Set implements StateStore.
func (s *RedisStore) Set(ctx context.Context, api string, state *QuotaState) error {
	if state == nil {
		return fmt.Errorf("quota state cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal quota state: %w", err)
	}

	// Keep the entry until the window resets; a state without a reset time
	// is kept for a day.
	ttl := time.Until(state.ResetAt)
	if state.ResetAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.redis.Set(ctx, Key(api), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
