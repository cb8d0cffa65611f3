package dto

import (
	"time"

	"saferun/internal/platform/geo"
)

type StartTimerInput struct {
	OwnerID string `json:"owner_id"`
	Minutes int    `json:"minutes"`
}

type StartRouteInput struct {
	OwnerID string         `json:"owner_id"`
	Start   geo.Coordinate `json:"start"`
	End     geo.Coordinate `json:"end"`
}

type CheckInInput struct {
	SessionID string `json:"-"`
	Type      string `json:"type"`
}

type ExtendInput struct {
	SessionID string `json:"-"`
	Minutes   int    `json:"minutes"`
}

type PositionInput struct {
	SessionID string `json:"-"`
	geo.Coordinate
}

type OverdueQuery struct {
	Cutoff time.Time
}

type ClaimInput struct {
	SessionID string
	Cutoff    time.Time
}

type RouteOutput struct {
	Start               geo.Coordinate  `json:"start"`
	End                 geo.Coordinate  `json:"end"`
	Current             *geo.Coordinate `json:"current,omitempty"`
	CurrentAt           *time.Time      `json:"current_at,omitempty"`
	DistanceKM          *float64        `json:"distance_km,omitempty"`
	Arrived             bool            `json:"arrived"`
	EstimatedDistanceKM float64         `json:"estimated_distance_km"`
	EstimatedMinutes    int             `json:"estimated_minutes"`
}

type SessionOutput struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"owner_id"`
	Kind           string       `json:"kind"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	Deadline       time.Time    `json:"deadline"`
	PlannedMinutes int          `json:"planned_minutes,omitempty"`
	ExtendedMin    int          `json:"extended_minutes"`
	CheckInCount   int          `json:"check_in_count"`
	LastCheckInAt  *time.Time   `json:"last_check_in_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	EscalationSent bool         `json:"escalation_sent"`
	EscalatedAt    *time.Time   `json:"escalated_at,omitempty"`
	PanicTriggered bool         `json:"panic_triggered"`
	Route          *RouteOutput `json:"route,omitempty"`
}

type NotificationOutput struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type ResultOutput struct {
	Session      SessionOutput      `json:"session"`
	Notification NotificationOutput `json:"notification"`
}

type PositionOutput struct {
	Session      SessionOutput       `json:"session"`
	DistanceKM   float64             `json:"distance_km"`
	Arrived      bool                `json:"arrived"`
	Notification *NotificationOutput `json:"notification,omitempty"`
}
