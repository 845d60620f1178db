// Package service implements the dispatcher
package service

import (
	"context"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/logger"

	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/dispatch/domain"
)

// seam for tests
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config controls addressing and retry behavior
type Config struct {
	// Domain is the reply routing domain, e.g. papertrail.example
	Domain string
	// From is the outbound sender address
	From string
	// MaxAttempts bounds delivery retries
	MaxAttempts int
	// RetryBase is the first backoff step
	RetryBase time.Duration
}

// Svc implements domain.SenderPort
type Svc struct {
	store    corr.StorePort
	query    corr.QueryPort
	delivery domain.DeliveryPort
	cfg      Config
	log      logger.Logger
}

// New constructs the dispatcher
func New(store corr.StorePort, query corr.QueryPort, delivery domain.DeliveryPort, cfg Config) *Svc {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &Svc{
		store:    store,
		query:    query,
		delivery: delivery,
		cfg:      cfg,
		log:      *logger.Named("dispatch"),
	}
}

// Send creates the request, delivers the outbound mail with bounded retries,
// then marks the request SENT atomically with the stored outbound message.
// On delivery failure the request stays PENDING so a retry is safe.
func (s *Svc) Send(ctx context.Context, in domain.SendInput) (domain.SendResult, error) {
	req, err := s.store.Create(ctx, in.UserID, in.CreditorID)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeCooldown) {
			return domain.SendResult{}, err
		}
		// a PENDING request inside the cooldown window is a dispatch retry,
		// reuse it instead of surfacing the cooldown
		last, lerr := s.query.LatestForPair(ctx, in.UserID, in.CreditorID)
		if lerr != nil || last.Status != corr.StatusPending {
			return domain.SendResult{}, err
		}
		req = last
	}

	mail := s.buildMail(req, in)

	pmid, err := s.deliver(ctx, mail)
	if err != nil {
		s.log.Error().Err(err).
			Str("request_id", req.ID).
			Str("creditor_id", in.CreditorID).
			Msg("delivery failed, request stays pending")
		return domain.SendResult{}, perr.Wrap(err, perr.ErrorCodeDispatchFailed,
			"delivery failed after retries, request "+req.ID+" stays pending")
	}

	draft := corr.MessageDraft{
		Direction:         corr.DirectionOutbound,
		FromAddress:       mail.From,
		ToAddress:         mail.To,
		Subject:           mail.Subject,
		BodyHTML:          mail.HTML,
		BodyText:          mail.Text,
		ProviderMessageID: &pmid,
		TrackingID:        mail.IdempotencyKey,
	}

	sent, err := s.store.MarkSent(ctx, req.ID, draft)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeInvalidTransition) {
			// a concurrent send already won; report the existing state
			view, gerr := s.query.Get(ctx, req.ID)
			if gerr != nil {
				return domain.SendResult{}, gerr
			}
			return domain.SendResult{Request: view.Request, ProviderMessageID: pmid}, nil
		}
		return domain.SendResult{}, err
	}

	s.log.Info().
		Str("request_id", sent.ID).
		Str("reference_id", sent.ReferenceID).
		Str("provider_message_id", pmid).
		Time("response_due", *sent.ResponseDue).
		Msg("request dispatched")

	return domain.SendResult{Request: sent, ProviderMessageID: pmid}, nil
}

// deliver calls the provider with exponential backoff on retryable failures
func (s *Svc) deliver(ctx context.Context, mail domain.OutboundMail) (string, error) {
	var lastErr error
	backoff := s.cfg.RetryBase
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		pmid, err := s.delivery.Deliver(ctx, mail)
		if err == nil {
			return pmid, nil
		}
		lastErr = err
		if !perr.Retryable(err) || attempt == s.cfg.MaxAttempts {
			break
		}
		s.log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("delivery attempt failed, retrying")
		if err := sleep(ctx, backoff); err != nil {
			return "", err
		}
		backoff *= 2
	}
	return "", lastErr
}

func (s *Svc) buildMail(req corr.Request, in domain.SendInput) domain.OutboundMail {
	subject := in.Subject
	if subject == "" {
		subject = "Data Subject Access Request " + req.ReferenceID
	}
	return domain.OutboundMail{
		To:             in.To,
		From:           s.cfg.From,
		ReplyTo:        "requests+" + req.ID + "@" + s.cfg.Domain,
		Subject:        subject,
		HTML:           in.BodyHTML,
		Text:           in.BodyText,
		IdempotencyKey: "dsar-" + req.ID,
	}
}
