package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/geo"
)

// ArrivalRadiusKM is how close a position must be to the destination for a
// route session to complete on its own.
const ArrivalRadiusKM = 0.1

type Kind string

const (
	KindTimer Kind = "timer"
	KindRoute Kind = "route"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEmergency Status = "emergency"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusEmergency
}

type CheckInKind string

const (
	CheckInSafe      CheckInKind = "safe"
	CheckInEmergency CheckInKind = "emergency"
)

func ParseCheckInKind(raw string) (CheckInKind, error) {
	switch CheckInKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CheckInSafe:
		return CheckInSafe, nil
	case CheckInEmergency:
		return CheckInEmergency, nil
	default:
		return "", fmt.Errorf("check-in type %q: %w", raw, apperrors.ErrInvalidInput)
	}
}

type Position struct {
	geo.Coordinate
	RecordedAt time.Time `json:"recorded_at"`
	DistanceKM float64   `json:"distance_km"`
}

type Route struct {
	Start               geo.Coordinate `json:"start"`
	End                 geo.Coordinate `json:"end"`
	Current             *Position      `json:"current,omitempty"`
	Arrived             bool           `json:"arrived"`
	EstimatedDistanceKM float64        `json:"estimated_distance_km"`
	EstimatedMinutes    int            `json:"estimated_minutes"`
}

// Session is the persisted record for both session kinds. Route is set only
// for KindRoute.
type Session struct {
	ID             string        `json:"id"`
	OwnerID        string        `json:"owner_id"`
	Kind           Kind          `json:"kind"`
	Status         Status        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	Deadline       time.Time     `json:"deadline"`
	PlannedMinutes int           `json:"planned_minutes,omitempty"`
	ExtendedBy     time.Duration `json:"extended_by"`
	CheckInCount   int           `json:"check_in_count"`
	LastCheckInAt  *time.Time    `json:"last_check_in_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	EscalationSent bool          `json:"escalation_sent"`
	EscalatedAt    *time.Time    `json:"escalated_at,omitempty"`
	PanicTriggered bool          `json:"panic_triggered"`
	PanicAt        *time.Time    `json:"panic_at,omitempty"`
	Route          *Route        `json:"route,omitempty"`
	Version        int64         `json:"version"`
}

// Clone returns a deep copy so stores never share pointers with callers.
func (s Session) Clone() Session {
	out := s
	out.LastCheckInAt = cloneTime(s.LastCheckInAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	out.EscalatedAt = cloneTime(s.EscalatedAt)
	out.PanicAt = cloneTime(s.PanicAt)
	if s.Route != nil {
		r := *s.Route
		if s.Route.Current != nil {
			p := *s.Route.Current
			r.Current = &p
		}
		out.Route = &r
	}
	return out
}

func (s Session) RequireActive() error {
	if s.Status != StatusActive {
		return fmt.Errorf("session %s is %s: %w", s.ID, s.Status, apperrors.ErrAlreadyResolved)
	}
	return nil
}

// Overdue reports whether the sweeper may escalate the session at cutoff.
func (s Session) Overdue(cutoff time.Time) bool {
	return s.Status == StatusActive && !s.EscalationSent && s.Deadline.Before(cutoff)
}

// Reschedule sets Deadline from the cadence, the check-in count and any
// accumulated extension. It never moves the deadline backwards.
func (s *Session) Reschedule(c Cadence) {
	next := NextDeadline(s.CreatedAt, c, s.CheckInCount, s.ExtendedBy)
	if next.After(s.Deadline) {
		s.Deadline = next
	}
}

func (s *Session) RecordSafeCheckIn(now time.Time, c Cadence) error {
	if err := s.RequireActive(); err != nil {
		return err
	}
	s.CheckInCount++
	s.LastCheckInAt = timePtr(now)
	s.Reschedule(c)
	return nil
}

func (s *Session) Extend(by time.Duration, c Cadence) error {
	if err := s.RequireActive(); err != nil {
		return err
	}
	if by <= 0 {
		return fmt.Errorf("extension must be positive: %w", apperrors.ErrInvalidInput)
	}
	s.ExtendedBy += by
	s.Reschedule(c)
	return nil
}

// TriggerPanic moves the session to emergency. Panic is terminal for both
// kinds.
func (s *Session) TriggerPanic(now time.Time) error {
	if err := s.RequireActive(); err != nil {
		return err
	}
	s.Status = StatusEmergency
	s.PanicTriggered = true
	s.PanicAt = timePtr(now)
	return nil
}

func (s *Session) Complete(now time.Time) error {
	if err := s.RequireActive(); err != nil {
		return err
	}
	s.Status = StatusCompleted
	s.CompletedAt = timePtr(now)
	return nil
}

// ClaimEscalation sets the escalation flag when the session is still overdue
// at cutoff. The flag is never cleared.
func (s *Session) ClaimEscalation(now, cutoff time.Time) error {
	if !s.Overdue(cutoff) {
		return fmt.Errorf("session %s no longer overdue: %w", s.ID, apperrors.ErrPreconditionFailed)
	}
	s.EscalationSent = true
	s.EscalatedAt = timePtr(now)
	return nil
}

// RecordPosition stores the latest fix and completes an active route session
// that has reached its destination. It returns true only for the update that
// caused the arrival.
func (s *Session) RecordPosition(now time.Time, at geo.Coordinate) (bool, error) {
	if s.Kind != KindRoute || s.Route == nil {
		return false, fmt.Errorf("session %s is not a route session: %w", s.ID, apperrors.ErrInvalidInput)
	}
	if err := at.Validate(); err != nil {
		return false, err
	}
	distance := geo.DistanceKM(at, s.Route.End)
	s.Route.Current = &Position{Coordinate: at, RecordedAt: now, DistanceKM: distance}

	if s.Status != StatusActive || s.Route.Arrived || distance > ArrivalRadiusKM {
		return false, nil
	}
	s.Route.Arrived = true
	s.Status = StatusCompleted
	s.CompletedAt = timePtr(now)
	return true, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
