package out

import (
	"context"
	"fmt"
	"sync"

	"saferun/internal/modules/contact/domain"
	contactout "saferun/internal/modules/contact/port/out"
	apperrors "saferun/internal/platform/errors"
)

type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[string]domain.Contact
}

var _ contactout.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contacts: map[string]domain.Contact{}}
}

func (s *MemoryStore) Upsert(_ context.Context, contact domain.Contact) error {
	s.mu.Lock()
	s.contacts[contact.OwnerID] = contact
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ownerID string) (domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[ownerID]
	if !ok {
		return domain.Contact{}, fmt.Errorf("contact for %s: %w", ownerID, apperrors.ErrNotFound)
	}
	return contact, nil
}
