package out

import (
	"context"

	"github.com/rs/zerolog"

	"saferun/internal/modules/notify/domain"
	notifyout "saferun/internal/modules/notify/port/out"
)

// LogGateway writes every message to the log instead of a carrier. It never
// fails and is the default for local runs.
type LogGateway struct {
	logger zerolog.Logger
}

var _ notifyout.Gateway = LogGateway{}

func NewLogGateway(logger zerolog.Logger) LogGateway {
	return LogGateway{logger: logger.With().Str("component", "log-gateway").Logger()}
}

func (LogGateway) Name() string { return "log" }

func (g LogGateway) Send(_ context.Context, msg domain.Message) error {
	g.logger.Info().
		Str("kind", string(msg.Kind)).
		Str("session_id", msg.SessionID).
		Str("to", msg.To).
		Str("contact", msg.ContactName).
		Str("body", msg.Body).
		Msg("notification")
	return nil
}
