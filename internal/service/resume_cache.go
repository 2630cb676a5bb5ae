package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ResumeState is the volatile mid-attempt state that never belongs in the
// attempt store: validated drag arrangements, the last story page read, and
// unsent answer drafts. It lets a resumed attempt reopen where the player
// left off.
type ResumeState struct {
	DragOrders   map[string][]string `json:"dragOrders,omitempty"`
	LastPageRead int                 `json:"lastPageRead,omitempty"`
	DraftAnswers map[string]string   `json:"draftAnswers,omitempty"`
	SavedAt      time.Time           `json:"savedAt"`
}

// ResumeCache stores ResumeState keyed by attempt. Restore returns
// (nil, nil) when no state exists; a corrupt entry is treated the same way
// so the session falls back to a fresh baseline instead of failing.
type ResumeCache interface {
	Persist(ctx context.Context, attemptID string, state *ResumeState) error
	Restore(ctx context.Context, attemptID string) (*ResumeState, error)
	Clear(ctx context.Context, attemptID string) error
}

const resumeKeyPrefix = "budayana:resume:"

// RedisResumeCache is the production ResumeCache backed by redis with a
// TTL, so abandoned attempts age out on their own.
type RedisResumeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisResumeCache(rdb *redis.Client, ttl time.Duration) *RedisResumeCache {
	return &RedisResumeCache{rdb: rdb, ttl: ttl}
}

func (c *RedisResumeCache) Persist(ctx context.Context, attemptID string, state *ResumeState) error {
	state.SavedAt = time.Now()
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, resumeKeyPrefix+attemptID, payload, c.ttl).Err()
}

func (c *RedisResumeCache) Restore(ctx context.Context, attemptID string) (*ResumeState, error) {
	payload, err := c.rdb.Get(ctx, resumeKeyPrefix+attemptID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state ResumeState
	if err := json.Unmarshal(payload, &state); err != nil {
		zap.L().Warn("discarding corrupt resume state", zap.String("attemptId", attemptID), zap.Error(err))
		_ = c.rdb.Del(ctx, resumeKeyPrefix+attemptID).Err()
		return nil, nil
	}
	return &state, nil
}

func (c *RedisResumeCache) Clear(ctx context.Context, attemptID string) error {
	return c.rdb.Del(ctx, resumeKeyPrefix+attemptID).Err()
}

// MemoryResumeCache is an in-process ResumeCache used when redis is not
// configured and in tests.
type MemoryResumeCache struct {
	mu      sync.RWMutex
	entries map[string]ResumeState
}

func NewMemoryResumeCache() *MemoryResumeCache {
	return &MemoryResumeCache{entries: make(map[string]ResumeState)}
}

func (c *MemoryResumeCache) Persist(_ context.Context, attemptID string, state *ResumeState) error {
	state.SavedAt = time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[attemptID] = *state
	return nil
}

func (c *MemoryResumeCache) Restore(_ context.Context, attemptID string) (*ResumeState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.entries[attemptID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (c *MemoryResumeCache) Clear(_ context.Context, attemptID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, attemptID)
	return nil
}
