package sessionstore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewMemoryStore creates a Store that lives for the process lifetime only.
// Resume works across uploads within one process, not across restarts.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: map[string]string{},
	}
}

func (s *memoryStore) Get(_ context.Context, fingerprint string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	url, ok := s.sessions[fingerprint]
	return url, ok, nil
}

func (s *memoryStore) Set(_ context.Context, fingerprint string, uploadURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[fingerprint] = uploadURL
	return nil
}

func (s *memoryStore) Remove(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, fingerprint)
	return nil
}
