package sendgrid

import (
	"context"

	"papertrail/internal/platform/logger"

	"papertrail/internal/services/dispatch/domain"

	"github.com/google/uuid"
)

// Logged is a development sender that logs mail instead of delivering it.
// It hands back a synthetic provider message id so the dispatch flow is
// exercised end to end without an API key
type Logged struct {
	log logger.Logger
}

// NewLogged creates a Logged sender
func NewLogged() *Logged {
	return &Logged{log: *logger.Named("sendgrid.dev")}
}

// Deliver implements domain.DeliveryPort
func (l *Logged) Deliver(_ context.Context, m domain.OutboundMail) (string, error) {
	pmid := "dev-" + uuid.NewString()
	l.log.Info().
		Str("to", m.To).
		Str("from", m.From).
		Str("reply_to", m.ReplyTo).
		Str("subject", m.Subject).
		Str("idempotency_key", m.IdempotencyKey).
		Str("provider_message_id", pmid).
		Msg("mail logged (not delivered)")
	return pmid, nil
}
