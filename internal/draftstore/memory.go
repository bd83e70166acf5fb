package draftstore

import (
	"context"
	"sync"
	"time"

	"planillas/backend/internal/domain"
)

type entry struct {
	draft   domain.Draft
	expires time.Time
}

// MemoryStore keeps drafts in-process. It serves tests and deployments
// without redis; expiry is checked lazily on read.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	drafts map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]entry),
	}
}

func (s *MemoryStore) Get(_ context.Context, scope string) (*domain.Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.drafts[scope]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(e.expires) {
		delete(s.drafts, scope)
		return nil, false, nil
	}
	d := e.draft
	return &d, true, nil
}

func (s *MemoryStore) Set(_ context.Context, scope string, d *domain.Draft) error {
	if d == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts[scope] = entry{draft: *d, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, scope)
	return nil
}
