package out_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	notifydto "saferun/internal/modules/notify/dto"
	sweepout "saferun/internal/modules/sweep/adapter/out"
	"saferun/internal/modules/sweep/domain"
	apperrors "saferun/internal/platform/errors"
)

type mockNotify struct {
	mock.Mock
}

func (m *mockNotify) Send(ctx context.Context, input notifydto.SendInput) (notifydto.SendOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(notifydto.SendOutput), args.Error(1)
}

func TestOverdueNotifierSendsOverdueEvent(t *testing.T) {
	t.Parallel()
	deadline := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	notify := &mockNotify{}
	notify.On("Send", mock.Anything, mock.MatchedBy(func(in notifydto.SendInput) bool {
		return in.Event == "overdue" &&
			in.OwnerID == "u1" &&
			in.SessionID == "s1" &&
			in.Deadline.Equal(deadline) &&
			in.OccurredAt.Equal(deadline.Add(6*time.Minute))
	})).Return(notifydto.SendOutput{Sent: true}, nil).Once()

	err := sweepout.NewOverdueNotifier(notify).NotifyOverdue(context.Background(), domain.Candidate{
		SessionID:      "s1",
		OwnerID:        "u1",
		Kind:           "timer",
		Deadline:       deadline,
		PlannedMinutes: 30,
		EscalatedAt:    deadline.Add(6 * time.Minute),
	})
	require.NoError(t, err)
	notify.AssertExpectations(t)
}

func TestOverdueNotifierReportsUnsentDelivery(t *testing.T) {
	t.Parallel()
	notify := &mockNotify{}
	notify.On("Send", mock.Anything, mock.Anything).
		Return(notifydto.SendOutput{Sent: false, Error: "no contact"}, nil).Once()

	err := sweepout.NewOverdueNotifier(notify).NotifyOverdue(context.Background(), domain.Candidate{SessionID: "s1"})
	require.ErrorIs(t, err, apperrors.ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "no contact")
	notify.AssertExpectations(t)
}
