package out

import (
	"context"
	"fmt"

	notifydto "saferun/internal/modules/notify/dto"
	notifyin "saferun/internal/modules/notify/port/in"
	"saferun/internal/modules/sweep/domain"
	sweepout "saferun/internal/modules/sweep/port/out"
	apperrors "saferun/internal/platform/errors"
)

// OverdueNotifier sends the overdue alert through the notify module.
type OverdueNotifier struct {
	notify notifyin.Usecase
}

var _ sweepout.Notifier = OverdueNotifier{}

func NewOverdueNotifier(notify notifyin.Usecase) OverdueNotifier {
	return OverdueNotifier{notify: notify}
}

func (n OverdueNotifier) NotifyOverdue(ctx context.Context, c domain.Candidate) error {
	out, err := n.notify.Send(ctx, notifydto.SendInput{
		Event:            "overdue",
		OwnerID:          c.OwnerID,
		SessionID:        c.SessionID,
		SessionKind:      c.Kind,
		PlannedMinutes:   c.PlannedMinutes,
		EstimatedMinutes: c.EstimatedMinutes,
		ExtendedMinutes:  c.ExtendedMinutes,
		CheckInCount:     c.CheckInCount,
		Deadline:         c.Deadline,
		OccurredAt:       c.EscalatedAt,
	})
	if err != nil {
		return err
	}
	if !out.Sent {
		return fmt.Errorf("%w: %s", apperrors.ErrDeliveryFailed, out.Error)
	}
	return nil
}
