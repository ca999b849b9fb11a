package progress

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("progress not found")

type Store interface {
	Get(ctx context.Context, userID, resourceID string) (ResourceProgress, error)
	// Upsert writes the record, but an existing row is only replaced when
	// the new progress exceeds the stored one. Out-of-order writes can
	// therefore never regress a record.
	Upsert(ctx context.Context, rp ResourceProgress) error
	ListForUser(ctx context.Context, userID string) ([]ResourceProgress, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	rows map[string]ResourceProgress // key: userID|resourceID
}

func NewInMemoryStore() Store {
	return &memoryStore{rows: map[string]ResourceProgress{}}
}

func rowKey(userID, resourceID string) string { return userID + "|" + resourceID }

func (m *memoryStore) Get(_ context.Context, userID, resourceID string) (ResourceProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rp, ok := m.rows[rowKey(userID, resourceID)]
	if !ok {
		return ResourceProgress{}, ErrNotFound
	}
	return rp, nil
}

func (m *memoryStore) Upsert(_ context.Context, rp ResourceProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rowKey(rp.UserID, rp.ResourceID)
	if ex, ok := m.rows[k]; ok && ex.Progress >= rp.Progress {
		return nil
	}
	m.rows[k] = rp
	return nil
}

func (m *memoryStore) ListForUser(_ context.Context, userID string) ([]ResourceProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ResourceProgress{}
	for _, rp := range m.rows {
		if rp.UserID == userID {
			out = append(out, rp)
		}
	}
	return out, nil
}
