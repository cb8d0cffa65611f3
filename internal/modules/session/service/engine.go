package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	"saferun/internal/platform/clock"
	"saferun/internal/platform/config"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/geo"
	"saferun/internal/platform/id"
)

type Config struct {
	Timer        config.Cadence
	Route        config.Cadence
	MinutesPerKM float64
}

func ConfigFrom(cfg config.Config) Config {
	return Config{Timer: cfg.Timer, Route: cfg.Route.Cadence, MinutesPerKM: cfg.Route.MinutesPerKM}
}

// Result is a committed session together with the outcome of the
// notification that followed the commit.
type Result struct {
	Session  domain.Session
	Delivery domain.Delivery
}

// Engine owns the session state machine. Every write goes through
// Store.Update with an expected status of active, so a session that was
// resolved concurrently is reported as ErrAlreadyResolved instead of being
// overwritten.
type Engine struct {
	clock    clock.Clock
	idGen    id.Generator
	store    sessionout.Store
	notifier sessionout.Notifier
	metrics  sessionout.Metrics
	cfg      Config
}

func NewEngine(clock clock.Clock, idGen id.Generator, store sessionout.Store, notifier sessionout.Notifier, metrics sessionout.Metrics, cfg Config) *Engine {
	return &Engine{clock: clock, idGen: idGen, store: store, notifier: notifier, metrics: metrics, cfg: cfg}
}

func (e *Engine) StartTimer(ctx context.Context, ownerID string, minutes int) (Result, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Result{}, fmt.Errorf("owner id is required: %w", apperrors.ErrInvalidInput)
	}
	if minutes <= 0 {
		return Result{}, fmt.Errorf("planned minutes must be positive, got %d: %w", minutes, apperrors.ErrInvalidInput)
	}
	now := e.clock.Now()
	session := domain.Session{
		ID:             e.idGen.New(),
		OwnerID:        ownerID,
		Kind:           domain.KindTimer,
		Status:         domain.StatusActive,
		CreatedAt:      now,
		PlannedMinutes: minutes,
	}
	session.Deadline = domain.NextDeadline(now, e.cadenceFor(session), 0, 0)
	return e.create(ctx, session)
}

func (e *Engine) StartRoute(ctx context.Context, ownerID string, start, end geo.Coordinate) (Result, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Result{}, fmt.Errorf("owner id is required: %w", apperrors.ErrInvalidInput)
	}
	if err := start.Validate(); err != nil {
		return Result{}, fmt.Errorf("start point: %w", err)
	}
	if err := end.Validate(); err != nil {
		return Result{}, fmt.Errorf("end point: %w", err)
	}
	now := e.clock.Now()
	distance := geo.DistanceKM(start, end)
	session := domain.Session{
		ID:        e.idGen.New(),
		OwnerID:   ownerID,
		Kind:      domain.KindRoute,
		Status:    domain.StatusActive,
		CreatedAt: now,
		Route: &domain.Route{
			Start:               start,
			End:                 end,
			EstimatedDistanceKM: distance,
			EstimatedMinutes:    geo.EstimateMinutes(distance, e.cfg.MinutesPerKM),
		},
	}
	session.Deadline = domain.NextDeadline(now, e.cadenceFor(session), 0, 0)
	return e.create(ctx, session)
}

func (e *Engine) CheckIn(ctx context.Context, sessionID string, kind domain.CheckInKind) (Result, error) {
	now := e.clock.Now()
	switch kind {
	case domain.CheckInSafe:
		return e.transition(ctx, sessionID, "check_in", domain.EventCheckedIn, func(s *domain.Session) error {
			return s.RecordSafeCheckIn(now, e.cadenceFor(*s))
		})
	case domain.CheckInEmergency:
		return e.transition(ctx, sessionID, "emergency_check_in", domain.EventPanic, func(s *domain.Session) error {
			return s.TriggerPanic(now)
		})
	default:
		return Result{}, fmt.Errorf("check-in type %q: %w", kind, apperrors.ErrInvalidInput)
	}
}

// Extend pushes the current deadline out by minutes. Extensions accumulate
// and survive later check-ins.
func (e *Engine) Extend(ctx context.Context, sessionID string, minutes int) (Result, error) {
	if minutes <= 0 {
		return Result{}, fmt.Errorf("extension minutes must be positive, got %d: %w", minutes, apperrors.ErrInvalidInput)
	}
	by := time.Duration(minutes) * time.Minute
	return e.transition(ctx, sessionID, "extend", domain.EventExtended, func(s *domain.Session) error {
		return s.Extend(by, e.cadenceFor(*s))
	})
}

func (e *Engine) Panic(ctx context.Context, sessionID string) (Result, error) {
	now := e.clock.Now()
	return e.transition(ctx, sessionID, "panic", domain.EventPanic, func(s *domain.Session) error {
		return s.TriggerPanic(now)
	})
}

func (e *Engine) End(ctx context.Context, sessionID string) (Result, error) {
	now := e.clock.Now()
	return e.transition(ctx, sessionID, "end", domain.EventEnded, func(s *domain.Session) error {
		return s.Complete(now)
	})
}

func (e *Engine) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Session{}, fmt.Errorf("session id is required: %w", apperrors.ErrInvalidInput)
	}
	return e.store.Get(ctx, sessionID)
}

func (e *Engine) ListByOwner(ctx context.Context, ownerID string) ([]domain.Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner id is required: %w", apperrors.ErrInvalidInput)
	}
	return e.store.ListByOwner(ctx, ownerID)
}

func (e *Engine) create(ctx context.Context, session domain.Session) (Result, error) {
	if err := e.store.Create(ctx, session); err != nil {
		return Result{}, err
	}
	stored, err := e.store.Get(ctx, session.ID)
	if err != nil {
		return Result{}, err
	}
	e.observe("start_" + string(stored.Kind))
	log.Ctx(ctx).Info().
		Str("session_id", stored.ID).
		Str("owner_id", stored.OwnerID).
		Str("kind", string(stored.Kind)).
		Time("deadline", stored.Deadline).
		Msg("session started")
	return Result{Session: stored, Delivery: dispatch(ctx, e.notifier, domain.EventStarted, stored)}, nil
}

func (e *Engine) transition(ctx context.Context, sessionID, operation string, event domain.Event, mutate sessionout.MutateFunc) (Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Result{}, fmt.Errorf("session id is required: %w", apperrors.ErrInvalidInput)
	}
	updated, err := e.store.Update(ctx, sessionID, domain.StatusActive, mutate)
	if err != nil {
		return Result{}, resolved(sessionID, err)
	}
	e.observe(operation)
	log.Ctx(ctx).Info().
		Str("session_id", updated.ID).
		Str("operation", operation).
		Str("status", string(updated.Status)).
		Int("check_ins", updated.CheckInCount).
		Time("deadline", updated.Deadline).
		Msg("session updated")
	return Result{Session: updated, Delivery: dispatch(ctx, e.notifier, event, updated)}, nil
}

func (e *Engine) cadenceFor(s domain.Session) domain.Cadence {
	if s.Kind == domain.KindRoute {
		return domain.RouteCadence{First: e.cfg.Route.FirstCheckIn, Step: e.cfg.Route.CheckInStep}
	}
	return domain.TimerCadence{
		First:   e.cfg.Timer.FirstCheckIn,
		Step:    e.cfg.Timer.CheckInStep,
		Planned: time.Duration(s.PlannedMinutes) * time.Minute,
	}
}

func (e *Engine) observe(operation string) {
	if e.metrics != nil {
		e.metrics.ObserveTransition(operation)
	}
}

// resolved turns a failed status precondition into ErrAlreadyResolved.
func resolved(sessionID string, err error) error {
	if errors.Is(err, apperrors.ErrPreconditionFailed) && !errors.Is(err, apperrors.ErrAlreadyResolved) {
		return fmt.Errorf("session %s: %w", sessionID, apperrors.ErrAlreadyResolved)
	}
	return err
}

// dispatch runs after the write is committed. A caller that hangs up must
// not cancel the notification; the notifier bounds it with its own timeout.
func dispatch(ctx context.Context, notifier sessionout.Notifier, event domain.Event, session domain.Session) domain.Delivery {
	if notifier == nil {
		return domain.Delivery{}
	}
	delivery := notifier.Notify(context.WithoutCancel(ctx), event, session)
	if delivery.Attempted && !delivery.OK {
		log.Ctx(ctx).Warn().
			Str("session_id", session.ID).
			Str("event", string(event)).
			Str("error", delivery.Error).
			Msg("notification not delivered")
	}
	return delivery
}
