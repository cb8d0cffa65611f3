package domain

import "time"

// Cadence yields the offset from session start at which the next check-in is
// due after n safe check-ins. Implementations must be strictly increasing in n.
type Cadence interface {
	Offset(checkIns int) time.Duration
}

// TimerCadence asks for the first check-in after First, or at the end of the
// planned duration when that comes sooner, then every Step.
type TimerCadence struct {
	First   time.Duration
	Step    time.Duration
	Planned time.Duration
}

func (c TimerCadence) Offset(checkIns int) time.Duration {
	first := c.First
	if c.Planned > 0 && c.Planned < first {
		first = c.Planned
	}
	return first + time.Duration(checkIns)*c.Step
}

type RouteCadence struct {
	First time.Duration
	Step  time.Duration
}

func (c RouteCadence) Offset(checkIns int) time.Duration {
	return c.First + time.Duration(checkIns)*c.Step
}

// NextDeadline is anchored to the session start, never to the time of the
// latest check-in.
func NextDeadline(createdAt time.Time, c Cadence, checkIns int, extendedBy time.Duration) time.Time {
	return createdAt.Add(c.Offset(checkIns) + extendedBy)
}
