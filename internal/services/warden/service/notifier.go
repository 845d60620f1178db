package service

import (
	"context"

	"papertrail/internal/platform/logger"
	ptime "papertrail/internal/platform/time"

	corr "papertrail/internal/services/correspondence/domain"
)

// LogNotifier writes reminders to the log. It stands in until a user facing
// channel exists
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier constructs a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: *logger.Named("warden.notify")}
}

// Remind implements NotifierPort
func (n *LogNotifier) Remind(_ context.Context, req corr.Request) error {
	n.log.Info().
		Str("request_id", req.ID).
		Str("reference_id", req.ReferenceID).
		Str("user_id", req.UserID).
		Str("creditor_id", req.CreditorID).
		Time("response_due", ptime.Deref(req.ResponseDue)).
		Msg("response deadline approaching")
	return nil
}
