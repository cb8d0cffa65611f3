package out

import (
	"context"

	"saferun/internal/modules/contact/domain"
)

// Store returns apperrors.ErrNotFound from Get when the owner has no contact.
type Store interface {
	Upsert(ctx context.Context, contact domain.Contact) error
	Get(ctx context.Context, ownerID string) (domain.Contact, error)
}
