// Package repo persists unmatched inbound events
package repo

import (
	"context"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/repokit"
	"papertrail/internal/services/inbound/domain"
)

// Repo is the inbound persistence surface
type Repo interface {
	InsertUnmatched(ctx context.Context, ev domain.UnmatchedEvent) error
	ListUnmatched(ctx context.Context, limit int) ([]domain.UnmatchedEvent, error)
}

type (
	// PG is a Postgres implementation of the inbound repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) InsertUnmatched(ctx context.Context, ev domain.UnmatchedEvent) error {
	const sql = `
		INSERT INTO unmatched_events (id, from_address, to_address, subject, reason, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, sql,
		ev.ID, ev.FromAddress, ev.ToAddress, ev.Subject, ev.Reason, ev.ReceivedAt,
	)
	return perr.FromPostgres(err, "insert unmatched event")
}

func (r *queries) ListUnmatched(ctx context.Context, limit int) ([]domain.UnmatchedEvent, error) {
	const sql = `
		SELECT id, from_address, to_address, subject, reason, received_at
		FROM unmatched_events
		ORDER BY received_at DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list unmatched events")
	}
	defer rows.Close()

	var out []domain.UnmatchedEvent
	for rows.Next() {
		var ev domain.UnmatchedEvent
		if err := rows.Scan(
			&ev.ID, &ev.FromAddress, &ev.ToAddress, &ev.Subject, &ev.Reason, &ev.ReceivedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
