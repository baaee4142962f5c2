// Package kvtest provides an in-memory kv.Cache for tests.
package kvtest

import (
	"context"
	"sync"
	"time"

	"voicesearch/pkg/kv"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is a kv.Cache kept in a map. Set records every write so tests can
// assert on keys; GetErr and SetErr inject failures.
type Memory struct {
	mu     sync.Mutex
	data   map[string]entry
	now    func() time.Time
	Writes []string
	Reads  []string
	GetErr error
	SetErr error
	Closed bool
}

var _ kv.Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry), now: time.Now}
}

// Advance moves the cache clock forward by d.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.now()
	m.now = func() time.Time { return base.Add(d) }
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads = append(m.Reads, key)
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Writes = append(m.Writes, key)
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

// Has reports whether key holds a live value.
func (m *Memory) Has(key string) bool {
	_, found, _ := m.Get(context.Background(), key)
	return found
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
