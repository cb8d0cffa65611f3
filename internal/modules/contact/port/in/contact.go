package in

import (
	"context"

	"saferun/internal/modules/contact/dto"
)

type Usecase interface {
	Set(ctx context.Context, input dto.SetInput) (dto.ContactOutput, error)
	Get(ctx context.Context, ownerID string) (dto.ContactOutput, error)
}
