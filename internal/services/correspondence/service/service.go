// Package service implements the correspondence store: every request
// lifecycle transition runs here, inside one transaction per operation
package service

import (
	"context"
	"strings"
	"time"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/repokit"
	"papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/correspondence/repo"

	"github.com/google/uuid"
)

// seams for tests
var (
	timeNow = time.Now
	newID   = uuid.NewString
)

// Config for the correspondence service
type Config struct {
	// HardLimit caps list page sizes
	HardLimit int
}

// Svc implements domain.StorePort and domain.QueryPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	reader repo.Repo
	cfg    Config
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Svc {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 100
	}
	return &Svc{
		db:     db,
		binder: binder,
		reader: binder.Bind(db),
		cfg:    cfg,
	}
}

// Create persists a new PENDING request after the cooldown gate.
// The pair advisory lock makes two concurrent creates serialize, so both
// cannot pass the gate at once.
func (s *Svc) Create(ctx context.Context, userID, creditorID string) (domain.Request, error) {
	if userID == "" || creditorID == "" {
		return domain.Request{}, perr.InvalidArgf("user id and creditor id are required")
	}

	var out domain.Request
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.PairLock(ctx, userID, creditorID); err != nil {
			return err
		}

		now := timeNow().UTC()
		last, err := r.LatestForPair(ctx, userID, creditorID)
		switch {
		case err == nil:
			if since := now.Sub(last.CreatedAt); since < domain.Cooldown {
				return perr.Cooldownf(
					"request to creditor %s created %s ago, cooldown is %s",
					creditorID, since.Truncate(time.Second), domain.Cooldown,
				)
			}
		case perr.IsCode(err, perr.ErrorCodeNotFound):
			// first request for the pair
		default:
			return err
		}

		id := newID()
		out = domain.Request{
			ID:          id,
			ReferenceID: referenceID(now, id),
			UserID:      userID,
			CreditorID:  creditorID,
			Status:      domain.StatusPending,
			CreatedAt:   now,
		}
		return r.InsertRequest(ctx, out)
	})
	if err != nil {
		return domain.Request{}, err
	}
	return out, nil
}

// MarkSent transitions PENDING -> SENT and persists the outbound message
// in the same transaction, all or nothing
func (s *Svc) MarkSent(ctx context.Context, requestID string, out domain.MessageDraft) (domain.Request, error) {
	var updated domain.Request
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		req, err := r.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.StatusPending {
			return perr.InvalidTransitionf("mark sent: request %s is %s", requestID, req.Status)
		}

		now := timeNow().UTC()
		sentAt := now
		due := sentAt.Add(domain.ResponseWindow)

		msg := bindDraft(out, requestID, now)
		msg.Direction = domain.DirectionOutbound
		if _, err := r.InsertMessage(ctx, msg); err != nil {
			return err
		}
		if err := r.SetSent(ctx, requestID, sentAt, due); err != nil {
			return err
		}

		updated = req
		updated.Status = domain.StatusSent
		updated.SentAt = &sentAt
		updated.ResponseDue = &due
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}
	return updated, nil
}

// RecordInbound stores an inbound message and transitions toward RESPONDED.
// Legal from SENT, ESCALATED (late reply), or RESPONDED (extra replies are
// stored without a transition). Duplicate provider message ids are absorbed.
func (s *Svc) RecordInbound(
	ctx context.Context,
	requestID string,
	in domain.MessageDraft,
) (domain.Request, bool, error) {
	var (
		updated   domain.Request
		duplicate bool
	)
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		req, err := r.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status == domain.StatusPending {
			return perr.InvalidTransitionf("record inbound: request %s is %s", requestID, req.Status)
		}

		if in.ProviderMessageID != nil {
			seen, err := r.HasProviderMessage(ctx, *in.ProviderMessageID)
			if err != nil {
				return err
			}
			if seen {
				duplicate = true
				updated = req
				return nil
			}
		}

		now := timeNow().UTC()
		msg := bindDraft(in, requestID, now)
		msg.Direction = domain.DirectionInbound
		inserted, err := r.InsertMessage(ctx, msg)
		if err != nil {
			return err
		}
		if !inserted {
			// lost an insert race on the provider message id unique index
			duplicate = true
			updated = req
			return nil
		}

		updated = req
		if req.Status == domain.StatusSent || req.Status == domain.StatusEscalated {
			respondedAt := msg.OccurredAt
			if err := r.SetResponded(ctx, requestID, respondedAt); err != nil {
				return err
			}
			updated.Status = domain.StatusResponded
			updated.RespondedAt = &respondedAt
		}
		return nil
	})
	if err != nil {
		return domain.Request{}, false, err
	}
	return updated, duplicate, nil
}

// Escalate moves SENT -> ESCALATED iff the response window elapsed.
// A racing responded transition wins; the loser sees InvalidTransition.
func (s *Svc) Escalate(ctx context.Context, requestID string) (domain.Request, error) {
	var updated domain.Request
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		ok, err := r.EscalateDue(ctx, requestID, timeNow().UTC())
		if err != nil {
			return err
		}
		req, err := r.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if !ok {
			return perr.InvalidTransitionf(
				"escalate: request %s is %s with due %v", requestID, req.Status, req.ResponseDue,
			)
		}
		updated = req
		return nil
	})
	if err != nil {
		return domain.Request{}, err
	}
	return updated, nil
}

// Get returns the request with its full message history
func (s *Svc) Get(ctx context.Context, requestID string) (domain.RequestView, error) {
	req, err := s.reader.Get(ctx, requestID)
	if err != nil {
		return domain.RequestView{}, err
	}
	msgs, err := s.reader.ListMessages(ctx, requestID)
	if err != nil {
		return domain.RequestView{}, err
	}
	return domain.RequestView{Request: req, Messages: msgs}, nil
}

// LatestForPair returns the newest request for a (user, creditor) pair
func (s *Svc) LatestForPair(ctx context.Context, userID, creditorID string) (domain.Request, error) {
	return s.reader.LatestForPair(ctx, userID, creditorID)
}

// ListByUser lists requests for a user, newest first
func (s *Svc) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Request, error) {
	return s.reader.ListByUser(ctx, userID, s.clamp(limit))
}

// ListByCreditor lists requests for a creditor, newest first
func (s *Svc) ListByCreditor(ctx context.Context, creditorID string, limit int) ([]domain.Request, error) {
	return s.reader.ListByCreditor(ctx, creditorID, s.clamp(limit))
}

// StatusCounts returns request counts bucketed by status
func (s *Svc) StatusCounts(ctx context.Context, f domain.StatsFilter) ([]domain.StatusCount, error) {
	return s.reader.StatusCounts(ctx, f)
}

func (s *Svc) clamp(limit int) int {
	if limit <= 0 || limit > s.cfg.HardLimit {
		return s.cfg.HardLimit
	}
	return limit
}

// referenceID builds the human readable id used in outbound subject lines,
// e.g. DSAR-202608291430-1f2e3d4c
func referenceID(now time.Time, requestID string) string {
	hex := strings.ReplaceAll(requestID, "-", "")
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return "DSAR-" + now.UTC().Format("200601021504") + "-" + hex
}

func bindDraft(d domain.MessageDraft, requestID string, now time.Time) domain.Message {
	occurred := d.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	return domain.Message{
		ID:                newID(),
		RequestID:         requestID,
		Direction:         d.Direction,
		FromAddress:       d.FromAddress,
		ToAddress:         d.ToAddress,
		Subject:           d.Subject,
		BodyHTML:          d.BodyHTML,
		BodyText:          d.BodyText,
		ProviderMessageID: d.ProviderMessageID,
		InReplyTo:         d.InReplyTo,
		TrackingID:        d.TrackingID,
		OccurredAt:        occurred.UTC(),
	}
}
