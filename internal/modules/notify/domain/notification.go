package domain

import (
	"fmt"
	"time"

	apperrors "saferun/internal/platform/errors"
)

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCheckedIn EventKind = "checked_in"
	EventExtended  EventKind = "extended"
	EventPanic     EventKind = "panic"
	EventOverdue   EventKind = "overdue"
	EventEnded     EventKind = "ended"
	EventArrived   EventKind = "arrived"
)

func ParseEventKind(raw string) (EventKind, error) {
	switch kind := EventKind(raw); kind {
	case EventStarted, EventCheckedIn, EventExtended, EventPanic, EventOverdue, EventEnded, EventArrived:
		return kind, nil
	default:
		return "", fmt.Errorf("event kind %q: %w", raw, apperrors.ErrInvalidInput)
	}
}

// Recipient is the emergency contact a notification is addressed to.
type Recipient struct {
	OwnerID     string
	OwnerName   string
	ContactName string
	Phone       string
}

// Notice describes the session transition being reported.
type Notice struct {
	Kind             EventKind
	OwnerID          string
	SessionID        string
	SessionKind      string
	PlannedMinutes   int
	EstimatedMinutes int
	ExtendedMinutes  int
	CheckInCount     int
	DistanceKM       float64
	Deadline         time.Time
	OccurredAt       time.Time
}

// Message is what a Gateway delivers.
type Message struct {
	Kind        EventKind `json:"kind"`
	SessionID   string    `json:"session_id"`
	OwnerID     string    `json:"owner_id"`
	To          string    `json:"to"`
	ContactName string    `json:"contact_name"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
