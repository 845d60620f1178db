// Package service implements the deadline warden
package service

import (
	"context"
	"encoding/json"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/logger"

	"papertrail/internal/modkit/repokit"
	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/warden/repo"

	"github.com/google/uuid"
)

// leaseKey scopes the sweep advisory lock
const leaseKey int64 = 0x7061706572747261 // "papertra"

// seams for tests
var (
	timeNow = time.Now
	newID   = uuid.NewString
)

// Config tunes the warden
type Config struct {
	// Interval between sweep passes
	Interval time.Duration
	// ReminderLead is how far before the deadline the reminder fires
	ReminderLead time.Duration
	// Batch bounds one pass
	Batch int
}

// NotifierPort delivers reminders to the user side
type NotifierPort interface {
	Remind(ctx context.Context, req corr.Request) error
}

// Svc runs the deadline sweeps
type Svc struct {
	db       repokit.TxRunner
	binder   repokit.Binder[repo.Repo]
	store    corr.StorePort
	notifier NotifierPort
	cfg      Config
	log      logger.Logger
}

// SweepStats summarizes one pass
type SweepStats struct {
	Escalated int
	Reminded  int
	Skipped   int
}

// New constructs the warden
func New(db repokit.TxRunner, store corr.StorePort, notifier NotifierPort, cfg Config) *Svc {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 5 * 24 * time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 200
	}
	return &Svc{
		db:       db,
		binder:   repo.NewPG(),
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		log:      *logger.Named("warden"),
	}
}

// Run sweeps on a ticker until the context ends. The first pass fires
// immediately so restarts do not delay overdue escalations
func (s *Svc) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if stats, err := s.Sweep(ctx); err != nil {
			s.log.Error().Err(err).Msg("sweep failed")
		} else if stats.Escalated+stats.Reminded+stats.Skipped > 0 {
			s.log.Info().
				Int("escalated", stats.Escalated).
				Int("reminded", stats.Reminded).
				Int("skipped", stats.Skipped).
				Msg("sweep complete")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep runs one escalation and reminder pass. Losing the lease to another
// instance is a clean no-op
func (s *Svc) Sweep(ctx context.Context) (SweepStats, error) {
	var (
		stats     SweepStats
		dueIDs    []string
		reminders []corr.Request
	)

	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		got, err := r.TryLease(ctx, leaseKey)
		if err != nil {
			return err
		}
		if !got {
			return nil
		}
		now := timeNow().UTC()
		if dueIDs, err = r.DueForEscalation(ctx, now, s.cfg.Batch); err != nil {
			return err
		}
		reminders, err = r.DueForReminder(ctx, now, s.cfg.ReminderLead, s.cfg.Batch)
		return err
	})
	if err != nil {
		return stats, err
	}

	for _, id := range dueIDs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		req, err := s.store.Escalate(ctx, id)
		switch {
		case err == nil:
			stats.Escalated++
			s.emit(ctx, "request.escalated", req)
		case perr.IsCode(err, perr.ErrorCodeInvalidTransition):
			// a reply landed between the listing and the swap
			stats.Skipped++
		default:
			s.log.Error().Err(err).Str("request_id", id).Msg("escalate failed")
		}
	}

	for _, req := range reminders {
		if s.remind(ctx, req) {
			stats.Reminded++
		}
	}
	return stats, nil
}

// remind notifies then stamps, so a failed notification retries next pass
func (s *Svc) remind(ctx context.Context, req corr.Request) bool {
	if err := s.notifier.Remind(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("request_id", req.ID).Msg("reminder failed")
		return false
	}

	var stamped bool
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		if stamped, err = r.SetReminderSent(ctx, req.ID, timeNow().UTC()); err != nil {
			return err
		}
		if !stamped {
			return nil
		}
		return r.InsertOutbox(ctx, s.outboxEvent("request.reminder", req))
	})
	if err != nil {
		s.log.Error().Err(err).Str("request_id", req.ID).Msg("stamp reminder failed")
		return false
	}
	return stamped
}

// emit records an outbox fact for a completed transition
func (s *Svc) emit(ctx context.Context, kind string, req corr.Request) {
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).InsertOutbox(ctx, s.outboxEvent(kind, req))
	})
	if err != nil {
		s.log.Error().Err(err).Str("request_id", req.ID).Msg("outbox write failed")
	}
}

func (s *Svc) outboxEvent(kind string, req corr.Request) repo.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{
		"request_id":   req.ID,
		"reference_id": req.ReferenceID,
		"user_id":      req.UserID,
		"creditor_id":  req.CreditorID,
		"status":       req.Status,
		"response_due": req.ResponseDue,
	})
	return repo.OutboxEvent{
		ID:        newID(),
		Kind:      kind,
		RequestID: req.ID,
		Payload:   payload,
		CreatedAt: timeNow().UTC(),
	}
}
