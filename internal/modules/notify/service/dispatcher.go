package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"saferun/internal/modules/notify/domain"
	notifyout "saferun/internal/modules/notify/port/out"
	"saferun/internal/platform/clock"
	apperrors "saferun/internal/platform/errors"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher resolves the recipient, renders the message and makes exactly
// one delivery attempt through the gateway.
type Dispatcher struct {
	clock     clock.Clock
	gateway   notifyout.Gateway
	directory notifyout.Directory
	metrics   notifyout.Metrics
	timeout   time.Duration
}

func NewDispatcher(clock clock.Clock, gateway notifyout.Gateway, directory notifyout.Directory, metrics notifyout.Metrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{clock: clock, gateway: gateway, directory: directory, metrics: metrics, timeout: timeout}
}

// Dispatch returns the delivered message, or an error wrapping
// ErrDeliveryFailed when nothing was delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notice) (domain.Message, error) {
	logger := log.Ctx(ctx).With().
		Str("session_id", n.SessionID).
		Str("event", string(n.Kind)).
		Str("gateway", d.gateway.Name()).
		Logger()

	recipient, err := d.directory.Lookup(ctx, n.OwnerID)
	if err != nil {
		d.observe(n.Kind, false)
		logger.Warn().Err(err).Msg("no recipient for notification")
		return domain.Message{}, fmt.Errorf("%w: resolve contact for %s: %v", apperrors.ErrDeliveryFailed, n.OwnerID, err)
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = d.clock.Now()
	}
	msg := domain.Compose(n, recipient, d.clock.Now())

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.gateway.Send(sendCtx, msg); err != nil {
		d.observe(n.Kind, false)
		logger.Warn().Err(err).Msg("notification delivery failed")
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
	}
	d.observe(n.Kind, true)
	logger.Info().Str("to", msg.To).Msg("notification delivered")
	return msg, nil
}

func (d *Dispatcher) GatewayName() string {
	return d.gateway.Name()
}

func (d *Dispatcher) observe(kind domain.EventKind, ok bool) {
	if d.metrics != nil {
		d.metrics.ObserveDelivery(string(kind), ok)
	}
}
