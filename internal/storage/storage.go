package storage

import "sync"

// Adapter abstracts the durable key-value backing store for the cart.
// Writes are synchronous: when Put returns, a subsequent Get observes
// the value.
type Adapter interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
	Close() error
}

// InMemory is a thread-safe map adapter, used in tests and when no
// durable backend is configured.
type InMemory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{data: make(map[string][]byte)}
}

func (m *InMemory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *InMemory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *InMemory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *InMemory) Close() error { return nil }
