package store

import (
	"context"
	"sync"

	"warden/internal/profile/models"
	"warden/pkg/sentinel"
)

// InMemory keeps serialized documents behind a RWMutex. Storing bytes rather
// than aggregates means FindByID always rehydrates through the defensive
// factory, exactly like the durable implementations.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[string][]byte)}
}

func (s *InMemory) Save(_ context.Context, p *models.Profile) error {
	payload, err := p.ToJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID()] = payload
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	payload, ok := s.profiles[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return models.FromJSON(payload)
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}
