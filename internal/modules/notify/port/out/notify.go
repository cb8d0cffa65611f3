package out

import (
	"context"

	"saferun/internal/modules/notify/domain"
)

type Gateway interface {
	Name() string
	Send(ctx context.Context, msg domain.Message) error
}

// Directory resolves an owner to their emergency contact.
type Directory interface {
	Lookup(ctx context.Context, ownerID string) (domain.Recipient, error)
}

type Metrics interface {
	ObserveDelivery(kind string, ok bool)
}
