package out

import (
	"context"
	"time"

	"saferun/internal/modules/session/domain"
)

// MutateFunc edits a session inside Store.Update. Returning an error aborts
// the write and the error is passed back to the caller unchanged.
type MutateFunc func(*domain.Session) error

// Store persists sessions. Update is the only write path for existing
// sessions: it loads the record, checks the expected status (empty means any),
// applies mutate and commits atomically with respect to every other Update on
// the same id. A status mismatch fails with apperrors.ErrPreconditionFailed and
// an unknown id with apperrors.ErrNotFound.
type Store interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, id string, expected domain.Status, mutate MutateFunc) (domain.Session, error)
	QueryOverdue(ctx context.Context, cutoff time.Time) ([]domain.Session, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Session, error)
}

// Notifier delivers one notification for a committed transition.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event, session domain.Session) domain.Delivery
}

type Metrics interface {
	ObserveTransition(operation string)
}
