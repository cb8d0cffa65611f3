package dto

import "time"

type SendInput struct {
	Event            string
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

// SendOutput reports a single delivery attempt. A failed delivery is not an
// error of the call: Sent is false and Error carries the reason.
type SendOutput struct {
	Sent    bool
	Error   string
	Gateway string
	To      string
}
