package revoke

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation set. Suited to a single-instance
// deployment; multiple instances need the Redis store so a logout on one
// instance is honored on all of them.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired on its own; nothing to deny.
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[jti] = m.now().Add(ttl)
	m.sweepLocked()
	return nil
}

func (m *Memory) Contains(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline, ok := m.entries[jti]
	if !ok {
		return false, nil
	}

	if m.now().After(deadline) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

// sweepLocked drops expired entries. Called under the lock on every Add, so
// the map never outgrows the set of still-live revocations by much.
func (m *Memory) sweepLocked() {
	now := m.now()
	for jti, deadline := range m.entries {
		if now.After(deadline) {
			delete(m.entries, jti)
		}
	}
}
