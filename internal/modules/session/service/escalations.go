package service

import (
	"context"
	"time"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	"saferun/internal/platform/clock"
)

// Escalations exposes the overdue query and the escalation claim. The claim
// is the only way EscalationSent becomes true.
type Escalations struct {
	clock clock.Clock
	store sessionout.Store
}

func NewEscalations(clock clock.Clock, store sessionout.Store) *Escalations {
	return &Escalations{clock: clock, store: store}
}

func (e *Escalations) ListOverdue(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	return e.store.QueryOverdue(ctx, cutoff)
}

// Claim marks the session escalated if it is still active, not yet escalated
// and past cutoff. Any other state fails with ErrPreconditionFailed.
func (e *Escalations) Claim(ctx context.Context, sessionID string, cutoff time.Time) (domain.Session, error) {
	now := e.clock.Now()
	return e.store.Update(ctx, sessionID, domain.StatusActive, func(s *domain.Session) error {
		return s.ClaimEscalation(now, cutoff)
	})
}
