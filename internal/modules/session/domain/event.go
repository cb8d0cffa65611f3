package domain

type Event string

const (
	EventStarted   Event = "started"
	EventCheckedIn Event = "checked_in"
	EventExtended  Event = "extended"
	EventPanic     Event = "panic"
	EventOverdue   Event = "overdue"
	EventEnded     Event = "ended"
	EventArrived   Event = "arrived"
)

// Delivery is the outcome of the single notification attempted after a
// committed transition. A failed delivery never rolls the transition back.
type Delivery struct {
	Attempted bool
	OK        bool
	Error     string
}
