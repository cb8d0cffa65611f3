package out

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	apperrors "saferun/internal/platform/errors"
)

// MemoryStore keeps sessions in process. A single mutex serialises writes,
// which is enough to make Update atomic per session.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]domain.Session{}}
}

var _ sessionout.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists: %w", session.ID, apperrors.ErrInvalidInput)
	}
	session.Version = 1
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	return session.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, expected domain.Status, mutate sessionout.MutateFunc) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	if expected != "" && current.Status != expected {
		return domain.Session{}, fmt.Errorf("session %s is %s, want %s: %w", id, current.Status, expected, apperrors.ErrPreconditionFailed)
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return domain.Session{}, err
	}
	next.ID = current.ID
	next.Version = current.Version + 1
	s.sessions[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) QueryOverdue(_ context.Context, cutoff time.Time) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Session{}
	for _, session := range s.sessions {
		if session.Overdue(cutoff) {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Session{}
	for _, session := range s.sessions {
		if session.OwnerID == ownerID {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
