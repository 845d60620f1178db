// Package repo provides the warden repository implementation
package repo

import (
	"context"
	"time"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/repokit"
	corr "papertrail/internal/services/correspondence/domain"
)

// OutboxEvent is a notification fact written in the same transaction as the
// state change it describes
type OutboxEvent struct {
	ID        string
	Kind      string
	RequestID string
	Payload   []byte
	CreatedAt time.Time
}

// Repo is the warden persistence surface
type Repo interface {
	// TryLease takes a transaction scoped advisory lock so only one sweeper
	// instance runs a pass at a time
	TryLease(ctx context.Context, key int64) (bool, error)

	// DueForEscalation lists SENT requests whose response window elapsed
	DueForEscalation(ctx context.Context, now time.Time, limit int) ([]string, error)

	// DueForReminder lists SENT requests inside the reminder lead window
	// that have not been reminded yet
	DueForReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]corr.Request, error)

	// SetReminderSent stamps the reminder, false when another pass beat us
	SetReminderSent(ctx context.Context, id string, at time.Time) (bool, error)

	InsertOutbox(ctx context.Context, ev OutboxEvent) error
}

type (
	// PG is a Postgres implementation of the warden repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) TryLease(ctx context.Context, key int64) (bool, error) {
	var got bool
	err := r.q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, key).Scan(&got)
	if err != nil {
		return false, perr.FromPostgres(err, "warden lease")
	}
	return got, nil
}

func (r *queries) DueForEscalation(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const sql = `
		SELECT id
		FROM requests
		WHERE status = $1 AND response_due < $2
		ORDER BY response_due ASC
		LIMIT $3
	`
	rows, err := r.q.Query(ctx, sql, corr.StatusSent, now, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list due requests")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *queries) DueForReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]corr.Request, error) {
	const sql = `
		SELECT id, reference_id, user_id, creditor_id, status,
		       created_at, sent_at, response_due, responded_at, reminder_sent_at
		FROM requests
		WHERE status = $1
		  AND reminder_sent_at IS NULL
		  AND response_due - make_interval(secs => $2) < $3
		  AND response_due > $3
		ORDER BY response_due ASC
		LIMIT $4
	`
	rows, err := r.q.Query(ctx, sql, corr.StatusSent, lead.Seconds(), now, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list reminder candidates")
	}
	defer rows.Close()

	var out []corr.Request
	for rows.Next() {
		var req corr.Request
		if err := rows.Scan(
			&req.ID, &req.ReferenceID, &req.UserID, &req.CreditorID, &req.Status,
			&req.CreatedAt, &req.SentAt, &req.ResponseDue, &req.RespondedAt, &req.ReminderSentAt,
		); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *queries) SetReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	const sql = `
		UPDATE requests
		SET reminder_sent_at = $2
		WHERE id = $1 AND reminder_sent_at IS NULL AND status = $3
	`
	tag, err := r.q.Exec(ctx, sql, id, at, corr.StatusSent)
	if err != nil {
		return false, perr.FromPostgres(err, "stamp reminder")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) InsertOutbox(ctx context.Context, ev OutboxEvent) error {
	const sql = `
		INSERT INTO outbox (id, kind, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.Exec(ctx, sql, ev.ID, ev.Kind, ev.RequestID, ev.Payload, ev.CreatedAt)
	return perr.FromPostgres(err, "insert outbox event")
}
