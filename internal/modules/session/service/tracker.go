package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	"saferun/internal/platform/clock"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/geo"
)

type PositionResult struct {
	Session    domain.Session
	DistanceKM float64
	Arrived    bool
	// Delivery is set only when this update completed the session.
	Delivery *domain.Delivery
}

// Tracker records live positions for route sessions. Positions are accepted
// in any status; only an active session can be completed by arrival.
type Tracker struct {
	clock    clock.Clock
	store    sessionout.Store
	notifier sessionout.Notifier
	metrics  sessionout.Metrics
}

func NewTracker(clock clock.Clock, store sessionout.Store, notifier sessionout.Notifier, metrics sessionout.Metrics) *Tracker {
	return &Tracker{clock: clock, store: store, notifier: notifier, metrics: metrics}
}

func (t *Tracker) UpdatePosition(ctx context.Context, sessionID string, at geo.Coordinate) (PositionResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return PositionResult{}, fmt.Errorf("session id is required: %w", apperrors.ErrInvalidInput)
	}
	if err := at.Validate(); err != nil {
		return PositionResult{}, err
	}
	now := t.clock.Now()
	var arrivedNow bool
	updated, err := t.store.Update(ctx, sessionID, "", func(s *domain.Session) error {
		arrived, err := s.RecordPosition(now, at)
		arrivedNow = arrived
		return err
	})
	if err != nil {
		return PositionResult{}, err
	}

	result := PositionResult{
		Session:    updated,
		DistanceKM: updated.Route.Current.DistanceKM,
		Arrived:    updated.Route.Arrived,
	}
	logger := log.Ctx(ctx)
	logger.Debug().
		Str("session_id", updated.ID).
		Str("position", at.String()).
		Float64("distance_km", result.DistanceKM).
		Msg("position recorded")
	if arrivedNow {
		if t.metrics != nil {
			t.metrics.ObserveTransition("arrive")
		}
		logger.Info().Str("session_id", updated.ID).Msg("destination reached, session completed")
		delivery := dispatch(ctx, t.notifier, domain.EventArrived, updated)
		result.Delivery = &delivery
	}
	return result, nil
}
