package in

import (
	"context"

	"saferun/internal/modules/sweep/dto"
)

type Usecase interface {
	RunPass(ctx context.Context) (dto.ReportOutput, error)
}
