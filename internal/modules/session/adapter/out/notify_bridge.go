package out

import (
	"context"
	"time"

	notifydto "saferun/internal/modules/notify/dto"
	notifyin "saferun/internal/modules/notify/port/in"
	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
)

// NotifyBridge forwards session events to the notify module.
type NotifyBridge struct {
	notify notifyin.Usecase
}

var _ sessionout.Notifier = NotifyBridge{}

func NewNotifyBridge(notify notifyin.Usecase) NotifyBridge {
	return NotifyBridge{notify: notify}
}

func (b NotifyBridge) Notify(ctx context.Context, event domain.Event, session domain.Session) domain.Delivery {
	out, err := b.notify.Send(ctx, SendInput(event, session))
	if err != nil {
		return domain.Delivery{Attempted: true, Error: err.Error()}
	}
	return domain.Delivery{Attempted: true, OK: out.Sent, Error: out.Error}
}

// SendInput flattens a session into the notify request for event.
func SendInput(event domain.Event, s domain.Session) notifydto.SendInput {
	in := notifydto.SendInput{
		Event:           string(event),
		OwnerID:         s.OwnerID,
		SessionID:       s.ID,
		SessionKind:     string(s.Kind),
		PlannedMinutes:  s.PlannedMinutes,
		ExtendedMinutes: int(s.ExtendedBy / time.Minute),
		CheckInCount:    s.CheckInCount,
		Deadline:        s.Deadline,
		OccurredAt:      occurredAt(event, s),
	}
	if s.Route != nil {
		in.EstimatedMinutes = s.Route.EstimatedMinutes
		in.DistanceKM = s.Route.EstimatedDistanceKM
		if s.Route.Current != nil {
			in.DistanceKM = s.Route.Current.DistanceKM
		}
	}
	return in
}

func occurredAt(event domain.Event, s domain.Session) time.Time {
	pick := func(t *time.Time) time.Time {
		if t == nil {
			return time.Time{}
		}
		return *t
	}
	switch event {
	case domain.EventStarted:
		return s.CreatedAt
	case domain.EventCheckedIn:
		return pick(s.LastCheckInAt)
	case domain.EventPanic:
		return pick(s.PanicAt)
	case domain.EventOverdue:
		return pick(s.EscalatedAt)
	case domain.EventEnded, domain.EventArrived:
		return pick(s.CompletedAt)
	default:
		return time.Time{}
	}
}
