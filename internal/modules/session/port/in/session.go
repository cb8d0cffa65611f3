package in

import (
	"context"

	"saferun/internal/modules/session/dto"
)

type Usecase interface {
	StartTimer(ctx context.Context, input dto.StartTimerInput) (dto.ResultOutput, error)
	StartRoute(ctx context.Context, input dto.StartRouteInput) (dto.ResultOutput, error)
	CheckIn(ctx context.Context, input dto.CheckInInput) (dto.ResultOutput, error)
	Extend(ctx context.Context, input dto.ExtendInput) (dto.ResultOutput, error)
	Panic(ctx context.Context, sessionID string) (dto.ResultOutput, error)
	End(ctx context.Context, sessionID string) (dto.ResultOutput, error)
	UpdatePosition(ctx context.Context, input dto.PositionInput) (dto.PositionOutput, error)
	Get(ctx context.Context, sessionID string) (dto.SessionOutput, error)
	ListByOwner(ctx context.Context, ownerID string) ([]dto.SessionOutput, error)
}

// EscalationUsecase is what the overdue sweeper needs from sessions.
type EscalationUsecase interface {
	ListOverdue(ctx context.Context, input dto.OverdueQuery) ([]dto.SessionOutput, error)
	ClaimEscalation(ctx context.Context, input dto.ClaimInput) (dto.SessionOutput, error)
}
