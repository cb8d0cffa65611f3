package domain

import (
	"fmt"
	"time"
)

const clockLayout = "15:04 MST"

// Compose renders the text the emergency contact receives for n.
func Compose(n Notice, to Recipient, now time.Time) Message {
	return Message{
		Kind:        n.Kind,
		SessionID:   n.SessionID,
		OwnerID:     n.OwnerID,
		To:          to.Phone,
		ContactName: to.ContactName,
		Body:        body(n, to.OwnerName),
		CreatedAt:   now,
	}
}

func body(n Notice, who string) string {
	deadline := n.Deadline.UTC().Format(clockLayout)
	at := n.OccurredAt.UTC().Format(clockLayout)
	switch n.Kind {
	case EventStarted:
		if n.SessionKind == "route" {
			return fmt.Sprintf("%s started a route using SafeRun. Estimated time to destination is %d minutes, first check-in due at %s. You'll be notified again when they confirm they're safe.", who, n.EstimatedMinutes, deadline)
		}
		return fmt.Sprintf("%s started a run using SafeRun. They plan to run for %d minutes. You'll be notified again when they confirm they're safe.", who, n.PlannedMinutes)
	case EventCheckedIn:
		return fmt.Sprintf("Update: %s checked in safe at %s (check-in #%d). Next check-in is due at %s.", who, at, n.CheckInCount, deadline)
	case EventExtended:
		return fmt.Sprintf("Update: %s has extended their SafeRun, %d extra minutes so far. They should check in again by %s.", who, n.ExtendedMinutes, deadline)
	case EventPanic:
		return fmt.Sprintf("Alert: %s pressed the panic button during the SafeRun at %s. Please check in with them immediately.", who, at)
	case EventOverdue:
		return fmt.Sprintf("Alert: %s has not confirmed they are safe after their running session! Check-in was due at %s. Please contact them immediately.", who, deadline)
	case EventEnded:
		return fmt.Sprintf("Update: %s has safely finished their SafeRun at %s. All is well!", who, at)
	case EventArrived:
		return fmt.Sprintf("Update: %s reached their destination at %s. All is well!", who, at)
	default:
		return fmt.Sprintf("Update from SafeRun about %s.", who)
	}
}
