package domain

import "time"

// Candidate is an overdue session as seen by the sweeper.
type Candidate struct {
	SessionID        string
	OwnerID          string
	Kind             string
	Deadline         time.Time
	PlannedMinutes   int
	EstimatedMinutes int
	ExtendedMinutes  int
	CheckInCount     int
	EscalatedAt      time.Time
}

// Report summarises one sweep pass. Escalated counts successful claims,
// DeliveryFailed is the subset whose notification did not go out.
type Report struct {
	StartedAt      time.Time
	Cutoff         time.Time
	Took           time.Duration
	Scanned        int
	Escalated      int
	DeliveryFailed int
	Skipped        int
	Errors         int
}

// Sent counts escalations whose alert was delivered.
func (r Report) Sent() int {
	return r.Escalated - r.DeliveryFailed
}

func (r Report) Failed() int {
	return r.DeliveryFailed + r.Errors
}
