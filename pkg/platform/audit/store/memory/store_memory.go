// Package memory provides an in-memory audit store for tests and local runs.
package memory

import (
	"context"
	"sync"

	id "sigclause/pkg/domain"
	audit "sigclause/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns all recorded events, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListByOrg returns events for one organization, oldest first.
func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrganizationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}
