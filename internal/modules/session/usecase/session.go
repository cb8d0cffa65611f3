package usecase

import (
	"context"
	"time"

	"saferun/internal/modules/session/domain"
	sessiondto "saferun/internal/modules/session/dto"
	sessionin "saferun/internal/modules/session/port/in"
	"saferun/internal/modules/session/service"
)

type Interactor struct {
	engine      *service.Engine
	tracker     *service.Tracker
	escalations *service.Escalations
}

var (
	_ sessionin.Usecase           = (*Interactor)(nil)
	_ sessionin.EscalationUsecase = (*Interactor)(nil)
)

func NewInteractor(engine *service.Engine, tracker *service.Tracker, escalations *service.Escalations) *Interactor {
	return &Interactor{engine: engine, tracker: tracker, escalations: escalations}
}

func (i *Interactor) StartTimer(ctx context.Context, input sessiondto.StartTimerInput) (sessiondto.ResultOutput, error) {
	return toResult(i.engine.StartTimer(ctx, input.OwnerID, input.Minutes))
}

func (i *Interactor) StartRoute(ctx context.Context, input sessiondto.StartRouteInput) (sessiondto.ResultOutput, error) {
	return toResult(i.engine.StartRoute(ctx, input.OwnerID, input.Start, input.End))
}

func (i *Interactor) CheckIn(ctx context.Context, input sessiondto.CheckInInput) (sessiondto.ResultOutput, error) {
	kind, err := domain.ParseCheckInKind(input.Type)
	if err != nil {
		return sessiondto.ResultOutput{}, err
	}
	return toResult(i.engine.CheckIn(ctx, input.SessionID, kind))
}

func (i *Interactor) Extend(ctx context.Context, input sessiondto.ExtendInput) (sessiondto.ResultOutput, error) {
	return toResult(i.engine.Extend(ctx, input.SessionID, input.Minutes))
}

func (i *Interactor) Panic(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error) {
	return toResult(i.engine.Panic(ctx, sessionID))
}

func (i *Interactor) End(ctx context.Context, sessionID string) (sessiondto.ResultOutput, error) {
	return toResult(i.engine.End(ctx, sessionID))
}

func (i *Interactor) UpdatePosition(ctx context.Context, input sessiondto.PositionInput) (sessiondto.PositionOutput, error) {
	res, err := i.tracker.UpdatePosition(ctx, input.SessionID, input.Coordinate)
	if err != nil {
		return sessiondto.PositionOutput{}, err
	}
	out := sessiondto.PositionOutput{
		Session:    ToOutput(res.Session),
		DistanceKM: res.DistanceKM,
		Arrived:    res.Arrived,
	}
	if res.Delivery != nil {
		n := toNotification(*res.Delivery)
		out.Notification = &n
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	session, err := i.engine.Get(ctx, sessionID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return ToOutput(session), nil
}

func (i *Interactor) ListByOwner(ctx context.Context, ownerID string) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.engine.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toOutputs(sessions), nil
}

func (i *Interactor) ListOverdue(ctx context.Context, input sessiondto.OverdueQuery) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.escalations.ListOverdue(ctx, input.Cutoff)
	if err != nil {
		return nil, err
	}
	return toOutputs(sessions), nil
}

func (i *Interactor) ClaimEscalation(ctx context.Context, input sessiondto.ClaimInput) (sessiondto.SessionOutput, error) {
	session, err := i.escalations.Claim(ctx, input.SessionID, input.Cutoff)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return ToOutput(session), nil
}

func toResult(res service.Result, err error) (sessiondto.ResultOutput, error) {
	if err != nil {
		return sessiondto.ResultOutput{}, err
	}
	return sessiondto.ResultOutput{
		Session:      ToOutput(res.Session),
		Notification: toNotification(res.Delivery),
	}, nil
}

func toNotification(d domain.Delivery) sessiondto.NotificationOutput {
	return sessiondto.NotificationOutput{Sent: d.OK, Error: d.Error}
}

func toOutputs(sessions []domain.Session) []sessiondto.SessionOutput {
	out := make([]sessiondto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToOutput(s))
	}
	return out
}

func ToOutput(s domain.Session) sessiondto.SessionOutput {
	out := sessiondto.SessionOutput{
		ID:             s.ID,
		OwnerID:        s.OwnerID,
		Kind:           string(s.Kind),
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		Deadline:       s.Deadline,
		PlannedMinutes: s.PlannedMinutes,
		ExtendedMin:    int(s.ExtendedBy / time.Minute),
		CheckInCount:   s.CheckInCount,
		LastCheckInAt:  s.LastCheckInAt,
		CompletedAt:    s.CompletedAt,
		EscalationSent: s.EscalationSent,
		EscalatedAt:    s.EscalatedAt,
		PanicTriggered: s.PanicTriggered,
	}
	if s.Route != nil {
		route := &sessiondto.RouteOutput{
			Start:               s.Route.Start,
			End:                 s.Route.End,
			Arrived:             s.Route.Arrived,
			EstimatedDistanceKM: s.Route.EstimatedDistanceKM,
			EstimatedMinutes:    s.Route.EstimatedMinutes,
		}
		if cur := s.Route.Current; cur != nil {
			coord := cur.Coordinate
			at := cur.RecordedAt
			distance := cur.DistanceKM
			route.Current = &coord
			route.CurrentAt = &at
			route.DistanceKM = &distance
		}
		out.Route = route
	}
	return out
}
