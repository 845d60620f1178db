// Package service implements the inbound correlator
package service

import (
	"context"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/logger"
	pstrings "papertrail/internal/platform/strings"

	"papertrail/internal/modkit/repokit"
	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/inbound/domain"
	"papertrail/internal/services/inbound/repo"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// seams for tests
var (
	timeNow = time.Now
	newID   = uuid.NewString
)

// Config tunes the correlator
type Config struct {
	// UnmatchedLimit caps the review listing
	UnmatchedLimit int
}

// Svc implements domain.CorrelatorPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	store  corr.StorePort
	cfg    Config
	log    logger.Logger
}

// New constructs the correlator
func New(db repokit.TxRunner, store corr.StorePort, cfg Config) *Svc {
	if cfg.UnmatchedLimit <= 0 {
		cfg.UnmatchedLimit = 100
	}
	return &Svc{
		db:     db,
		binder: repo.NewPG(),
		store:  store,
		cfg:    cfg,
		log:    *logger.Named("inbound"),
	}
}

// Handle correlates one webhook event. It never fails the webhook for
// domain reasons: unknown recipients and unknown request ids are recorded
// as unmatched, duplicates are acknowledged. Only infrastructure errors
// surface to the caller
func (s *Svc) Handle(ctx context.Context, ev domain.Event) (domain.Result, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = timeNow().UTC()
	}

	reqID, ok := domain.RequestIDFromRecipients(ev.To)
	if !ok {
		if err := s.recordUnmatched(ctx, ev, "no plus-addressed recipient"); err != nil {
			return domain.Result{}, err
		}
		return domain.Result{Outcome: domain.OutcomeUnmatched}, nil
	}

	draft := corr.MessageDraft{
		Direction:   corr.DirectionInbound,
		FromAddress: ev.From,
		ToAddress:   ev.To,
		Subject:     ev.Subject,
		BodyHTML:    ev.HTML,
		BodyText:    ev.Text,
		OccurredAt:  ev.OccurredAt,
	}
	if ev.Headers.MessageID != "" {
		draft.ProviderMessageID = pstrings.Ptr(ev.Headers.MessageID)
	}
	if ev.Headers.InReplyTo != "" {
		draft.InReplyTo = pstrings.Ptr(ev.Headers.InReplyTo)
	}

	req, duplicate, err := s.store.RecordInbound(ctx, reqID, draft)
	switch {
	case err == nil:
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		if uerr := s.recordUnmatched(ctx, ev, "request not found"); uerr != nil {
			return domain.Result{}, uerr
		}
		return domain.Result{Outcome: domain.OutcomeUnmatched}, nil
	case perr.IsCode(err, perr.ErrorCodeInvalidTransition):
		// a reply before anything was sent cannot belong to this request
		if uerr := s.recordUnmatched(ctx, ev, "request not yet sent"); uerr != nil {
			return domain.Result{}, uerr
		}
		return domain.Result{Outcome: domain.OutcomeUnmatched}, nil
	default:
		return domain.Result{}, err
	}

	if duplicate {
		s.log.Debug().Str("request_id", req.ID).Msg("duplicate inbound dropped")
		return domain.Result{Outcome: domain.OutcomeDuplicate, RequestID: req.ID}, nil
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("status", string(req.Status)).
		Msg("inbound recorded")
	return domain.Result{Outcome: domain.OutcomeRecorded, RequestID: req.ID}, nil
}

// ListUnmatched returns the newest unmatched events for operator review
func (s *Svc) ListUnmatched(ctx context.Context, limit int) ([]domain.UnmatchedEvent, error) {
	if limit <= 0 || limit > s.cfg.UnmatchedLimit {
		limit = s.cfg.UnmatchedLimit
	}
	var out []domain.UnmatchedEvent
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).ListUnmatched(ctx, limit)
		return err
	})
	return out, err
}

func (s *Svc) recordUnmatched(ctx context.Context, ev domain.Event, reason string) error {
	// normalize the same way recipient parsing does, so audit rows compare
	// cleanly against parsed addresses
	rec := domain.UnmatchedEvent{
		ID:          newID(),
		FromAddress: norm.NFC.String(ev.From),
		ToAddress:   norm.NFC.String(ev.To),
		Subject:     norm.NFC.String(ev.Subject),
		Reason:      reason,
		ReceivedAt:  timeNow().UTC(),
	}
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).InsertUnmatched(ctx, rec)
	})
	if err != nil {
		return err
	}
	s.log.Warn().
		Str("from", ev.From).
		Str("to", ev.To).
		Str("reason", reason).
		Msg("inbound unmatched")
	return nil
}
