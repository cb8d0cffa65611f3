package out

import (
	"context"
	"time"

	sessiondto "saferun/internal/modules/session/dto"
	sessionin "saferun/internal/modules/session/port/in"
	"saferun/internal/modules/sweep/domain"
	sweepout "saferun/internal/modules/sweep/port/out"
)

// SessionSource reads and claims overdue sessions through the session
// module's escalation port.
type SessionSource struct {
	sessions sessionin.EscalationUsecase
}

var _ sweepout.SessionSource = SessionSource{}

func NewSessionSource(sessions sessionin.EscalationUsecase) SessionSource {
	return SessionSource{sessions: sessions}
}

func (s SessionSource) Overdue(ctx context.Context, cutoff time.Time) ([]domain.Candidate, error) {
	sessions, err := s.sessions.ListOverdue(ctx, sessiondto.OverdueQuery{Cutoff: cutoff})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toCandidate(session))
	}
	return out, nil
}

func (s SessionSource) Claim(ctx context.Context, sessionID string, cutoff time.Time) (domain.Candidate, error) {
	session, err := s.sessions.ClaimEscalation(ctx, sessiondto.ClaimInput{SessionID: sessionID, Cutoff: cutoff})
	if err != nil {
		return domain.Candidate{}, err
	}
	return toCandidate(session), nil
}

func toCandidate(s sessiondto.SessionOutput) domain.Candidate {
	c := domain.Candidate{
		SessionID:       s.ID,
		OwnerID:         s.OwnerID,
		Kind:            s.Kind,
		Deadline:        s.Deadline,
		PlannedMinutes:  s.PlannedMinutes,
		ExtendedMinutes: s.ExtendedMin,
		CheckInCount:    s.CheckInCount,
	}
	if s.EscalatedAt != nil {
		c.EscalatedAt = *s.EscalatedAt
	}
	if s.Route != nil {
		c.EstimatedMinutes = s.Route.EstimatedMinutes
	}
	return c
}
