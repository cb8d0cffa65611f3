package in

import (
	"context"

	"saferun/internal/modules/notify/dto"
)

type Usecase interface {
	Send(ctx context.Context, input dto.SendInput) (dto.SendOutput, error)
}
