package store

import (
	"math/big"
	"sync"
)

// Memory is the default in-memory Store: nested maps guarded by a mutex.
// Suitable for a single-process deployment; amounts are copied on the way in
// and out so no caller ever holds a live reference into the store.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*big.Int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]map[string]*big.Int)}
}

func (m *Memory) Get(recipient, matcher string) (*big.Int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.buckets[recipient]
	if !ok {
		return nil, false, nil
	}
	amt, ok := bucket[matcher]
	if !ok {
		return nil, false, nil
	}
	return new(big.Int).Set(amt), true, nil
}

func (m *Memory) Put(recipient, matcher string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.buckets[recipient]
	if !ok {
		bucket = make(map[string]*big.Int)
		m.buckets[recipient] = bucket
	}
	bucket[matcher] = new(big.Int).Set(amount)
	return nil
}

func (m *Memory) Delete(recipient, matcher string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.buckets[recipient]; ok {
		delete(bucket, matcher)
	}
	return nil
}

func (m *Memory) Matchers(recipient string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.buckets[recipient]
	if !ok {
		return nil, nil
	}
	matchers := make([]string, 0, len(bucket))
	for matcher := range bucket {
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

func (m *Memory) DeleteBucket(recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, recipient)
	return nil
}

var _ Store = (*Memory)(nil)
