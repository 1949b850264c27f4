package store

import (
	"context"
	"slices"
	"sync"

	"github.com/joey603/surveypro/pkg/survey"
)

// MemStore is an in-memory survey store for development and tests.
type MemStore struct {
	mu      sync.RWMutex
	surveys map[string]*survey.Survey
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{surveys: make(map[string]*survey.Survey)}
}

func (m *MemStore) Save(_ context.Context, s *survey.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.surveys[s.ID] = &cp
	return nil
}

func (m *MemStore) Load(_ context.Context, id string) (*survey.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemStore) List(_ context.Context) ([]*survey.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*survey.Survey, 0, len(m.surveys))
	for _, s := range m.surveys {
		cp := *s
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *survey.Survey) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.surveys, id)
	return nil
}

func (m *MemStore) Close(context.Context) error { return nil }

var _ Store = (*MemStore)(nil)
