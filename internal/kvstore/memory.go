package kvstore

import (
	"sync"

	"mindmend/pkg/mindtypes"
)

// MemoryStore keeps records in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get returns a copy of the record under key.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.records[key]
	if !ok {
		return nil, mindtypes.ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value under key.
func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.records[key] = stored
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
