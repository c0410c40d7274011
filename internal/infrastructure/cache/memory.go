package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is an in-process mutual exclusion lock with expiration.
// It only guards a single process; use RedisLocker across replicas.
type MemoryLocker struct {
	mu    sync.Mutex
	items map[string]*lockItem
}

type lockItem struct {
	token      string
	expireTime time.Time
}

// NewMemoryLocker creates a new in-memory locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		items: make(map[string]*lockItem),
	}
}

// Acquire takes the lock when it is free or expired. The returned token
// must be passed to Release.
func (ml *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if item, exists := ml.items[key]; exists && time.Now().Before(item.expireTime) {
		return "", false, nil
	}

	token := uuid.NewString()
	ml.items[key] = &lockItem{
		token:      token,
		expireTime: time.Now().Add(ttl),
	}
	return token, true, nil
}

// Extend pushes the expiry forward while the token owns an unexpired lock
func (ml *MemoryLocker) Extend(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	item, exists := ml.items[key]
	if !exists || item.token != token || !time.Now().Before(item.expireTime) {
		return false, nil
	}
	item.expireTime = time.Now().Add(ttl)
	return true, nil
}

// Release drops the lock if the token still owns it
func (ml *MemoryLocker) Release(_ context.Context, key, token string) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if item, exists := ml.items[key]; exists && item.token == token {
		delete(ml.items, key)
	}
	return nil
}
