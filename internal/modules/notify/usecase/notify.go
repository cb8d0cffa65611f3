package usecase

import (
	"context"
	"errors"

	"saferun/internal/modules/notify/domain"
	notifydto "saferun/internal/modules/notify/dto"
	notifyin "saferun/internal/modules/notify/port/in"
	"saferun/internal/modules/notify/service"
	apperrors "saferun/internal/platform/errors"
)

type Interactor struct {
	dispatcher *service.Dispatcher
}

func NewInteractor(dispatcher *service.Dispatcher) notifyin.Usecase {
	return &Interactor{dispatcher: dispatcher}
}

// Send only returns an error for a malformed request. Delivery failures are
// reported in the output.
func (i *Interactor) Send(ctx context.Context, input notifydto.SendInput) (notifydto.SendOutput, error) {
	kind, err := domain.ParseEventKind(input.Event)
	if err != nil {
		return notifydto.SendOutput{}, err
	}
	out := notifydto.SendOutput{Gateway: i.dispatcher.GatewayName()}
	msg, err := i.dispatcher.Dispatch(ctx, domain.Notice{
		Kind:             kind,
		OwnerID:          input.OwnerID,
		SessionID:        input.SessionID,
		SessionKind:      input.SessionKind,
		PlannedMinutes:   input.PlannedMinutes,
		EstimatedMinutes: input.EstimatedMinutes,
		ExtendedMinutes:  input.ExtendedMinutes,
		CheckInCount:     input.CheckInCount,
		DistanceKM:       input.DistanceKM,
		Deadline:         input.Deadline,
		OccurredAt:       input.OccurredAt,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDeliveryFailed) {
			return notifydto.SendOutput{}, err
		}
		out.Error = err.Error()
		return out, nil
	}
	out.Sent = true
	out.To = msg.To
	return out, nil
}
