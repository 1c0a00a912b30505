package session

import (
	"context"
	"sort"
	"sync"
)

// memoryStore keeps everything in process memory. Used by tests and
// ephemeral runs; same contract as SQLStore.
type memoryStore struct {
	mu      sync.RWMutex
	sess    *Session
	results []*Result
}

func NewInMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) LoadSession(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil, ErrNoSession
	}
	return m.sess.Clone(), nil
}

func (m *memoryStore) SaveSession(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s.Clone()
	return nil
}

func (m *memoryStore) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *memoryStore) AppendResult(ctx context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memoryStore) GetResult(ctx context.Context, id string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrResultNotFound
}

func (m *memoryStore) ListResults(ctx context.Context) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Result, len(m.results))
	copy(out, m.results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *memoryStore) ClearResults(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = nil
	return nil
}
