package out

import (
	"context"
	"time"

	"saferun/internal/modules/sweep/domain"
)

// SessionSource lists overdue sessions and claims them for escalation. Claim
// fails with apperrors.ErrPreconditionFailed when the session was resolved,
// escalated or rescheduled since it was listed.
type SessionSource interface {
	Overdue(ctx context.Context, cutoff time.Time) ([]domain.Candidate, error)
	Claim(ctx context.Context, sessionID string, cutoff time.Time) (domain.Candidate, error)
}

type Notifier interface {
	NotifyOverdue(ctx context.Context, candidate domain.Candidate) error
}

type Metrics interface {
	ObservePass(took time.Duration, sent, skipped, failed int)
}
