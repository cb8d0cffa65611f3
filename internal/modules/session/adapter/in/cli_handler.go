package in

import (
	"context"

	sessiondto "saferun/internal/modules/session/dto"
	sessionin "saferun/internal/modules/session/port/in"
	"saferun/internal/platform/geo"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) StartTimer(ctx context.Context, ownerID string, minutes int) (sessiondto.ResultOutput, error) {
	return h.usecase.StartTimer(ctx, sessiondto.StartTimerInput{OwnerID: ownerID, Minutes: minutes})
}

func (h CLIHandler) StartRoute(ctx context.Context, ownerID string, start, end geo.Coordinate) (sessiondto.ResultOutput, error) {
	return h.usecase.StartRoute(ctx, sessiondto.StartRouteInput{OwnerID: ownerID, Start: start, End: end})
}

func (h CLIHandler) CheckIn(ctx context.Context, sessionID, checkInType string) (sessiondto.ResultOutput, error) {
	return h.usecase.CheckIn(ctx, sessiondto.CheckInInput{SessionID: sessionID, Type: checkInType})
}

func (h CLIHandler) Extend(ctx context.Context, sessionID string, minutes int) (sessiondto.ResultOutput, error) {
	return h.usecase.Extend(ctx, sessiondto.ExtendInput{SessionID: sessionID, Minutes: minutes})
}

func (h CLIHandler) Panic(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error) {
	return h.usecase.Panic(ctx, sessionID)
}

func (h CLIHandler) End(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error) {
	return h.usecase.End(ctx, sessionID)
}

func (h CLIHandler) Position(ctx context.Context, sessionID string, at geo.Coordinate) (sessiondto.PositionOutput, error) {
	return h.usecase.UpdatePosition(ctx, sessiondto.PositionInput{SessionID: sessionID, Coordinate: at})
}

func (h CLIHandler) Show(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	return h.usecase.Get(ctx, sessionID)
}

func (h CLIHandler) List(ctx context.Context, ownerID string) ([]sessiondto.SessionOutput, error) {
	return h.usecase.ListByOwner(ctx, ownerID)
}
