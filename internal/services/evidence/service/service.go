// Package service implements the evidence binder
package service

import (
	"context"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/logger"
	"papertrail/internal/platform/store"

	"papertrail/internal/modkit/repokit"
	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/evidence/domain"
	"papertrail/internal/services/evidence/repo"

	"github.com/google/uuid"
)

// seams for tests
var (
	timeNow = time.Now
	newID   = uuid.NewString
)

// Config tunes the binder
type Config struct {
	// CollectiveThreshold is the violation count past which a creditor is
	// flagged for collective action
	CollectiveThreshold int
}

// Svc implements domain.BinderPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	query  corr.QueryPort
	ch     store.Clickhouse
	cfg    Config
	log    logger.Logger
}

// New constructs the binder. ch may be nil when the analytics mirror is off
func New(db repokit.TxRunner, query corr.QueryPort, ch store.Clickhouse, cfg Config) *Svc {
	if cfg.CollectiveThreshold <= 0 {
		cfg.CollectiveThreshold = 100
	}
	return &Svc{
		db:     db,
		binder: repo.NewPG(),
		query:  query,
		ch:     ch,
		cfg:    cfg,
		log:    *logger.Named("evidence"),
	}
}

// Attach appends a violation to a request. The request must have left
// PENDING: evidence describes how a creditor handled a request, so nothing
// can be attached before anything was sent
func (s *Svc) Attach(ctx context.Context, requestID string, in domain.ViolationInput) (domain.Violation, error) {
	if !in.Severity.Valid() {
		return domain.Violation{}, perr.InvalidArgf("unknown severity %q", in.Severity)
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return domain.Violation{}, perr.InvalidArgf("confidence must be within [0,1]")
	}

	view, err := s.query.Get(ctx, requestID)
	if err != nil {
		return domain.Violation{}, err
	}
	if view.Request.Status == corr.StatusPending {
		return domain.Violation{}, perr.InvalidTransitionf("request %s has not been sent", requestID)
	}

	v := domain.Violation{
		ID:              newID(),
		RequestID:       requestID,
		Type:            in.Type,
		Severity:        in.Severity,
		Confidence:      in.Confidence,
		EvidenceRefs:    in.EvidenceRefs,
		EstimatedDamage: in.EstimatedDamage,
		Supersedes:      in.Supersedes,
		CreatedAt:       timeNow().UTC(),
	}

	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if v.Supersedes != nil {
			ok, err := r.Exists(ctx, *v.Supersedes)
			if err != nil {
				return err
			}
			if !ok {
				return perr.NotFoundf("superseded violation %s", *v.Supersedes)
			}
		}
		return r.Insert(ctx, v)
	})
	if err != nil {
		return domain.Violation{}, err
	}

	s.mirror(ctx, view.Request.CreditorID, v)
	return v, nil
}

// List returns every violation row for the request, superseded included
func (s *Svc) List(ctx context.Context, requestID string) ([]domain.Violation, error) {
	var out []domain.Violation
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).List(ctx, requestID)
		return err
	})
	return out, err
}

// Score computes the aggregate severity score for the request
func (s *Svc) Score(ctx context.Context, requestID string) (domain.ScoreView, error) {
	if _, err := s.query.Get(ctx, requestID); err != nil {
		return domain.ScoreView{}, err
	}
	vs, err := s.List(ctx, requestID)
	if err != nil {
		return domain.ScoreView{}, err
	}
	score, active := domain.AggregateScore(vs)
	return domain.ScoreView{RequestID: requestID, Score: score, Violations: active}, nil
}

// Rollup aggregates exposure across every request for the creditor
func (s *Svc) Rollup(ctx context.Context, creditorID string) (domain.CreditorRollup, error) {
	var out domain.CreditorRollup
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).Rollup(ctx, creditorID)
		return err
	})
	if err != nil {
		return domain.CreditorRollup{}, err
	}
	out.OverThreshold = out.Violations >= s.cfg.CollectiveThreshold
	return out, nil
}

// mirror writes the violation fact to the analytics store, best effort
func (s *Svc) mirror(ctx context.Context, creditorID string, v domain.Violation) {
	if s.ch == nil {
		return
	}
	err := s.ch.Insert(ctx, "violation_events",
		[]string{"id", "request_id", "creditor_id", "type", "severity", "confidence", "estimated_damage", "created_at"},
		[][]any{{v.ID, v.RequestID, creditorID, v.Type, string(v.Severity), v.Confidence, v.EstimatedDamage, v.CreatedAt}},
	)
	if err != nil {
		s.log.Warn().Err(err).Str("violation_id", v.ID).Msg("analytics mirror failed")
	}
}
