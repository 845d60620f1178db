// Package repo provides the correspondence repository implementation
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"time"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/repokit"
	"papertrail/internal/services/correspondence/domain"

	"github.com/jackc/pgx/v5"
)

// Repo is the correspondence persistence surface used by the service layer
type Repo interface {
	// PairLock serializes request creation per (user, creditor) pair
	// for the lifetime of the surrounding transaction
	PairLock(ctx context.Context, userID, creditorID string) error

	InsertRequest(ctx context.Context, r domain.Request) error
	Get(ctx context.Context, id string) (domain.Request, error)
	GetForUpdate(ctx context.Context, id string) (domain.Request, error)
	LatestForPair(ctx context.Context, userID, creditorID string) (domain.Request, error)

	SetSent(ctx context.Context, id string, sentAt, responseDue time.Time) error
	SetResponded(ctx context.Context, id string, respondedAt time.Time) error
	EscalateDue(ctx context.Context, id string, now time.Time) (bool, error)

	// InsertMessage inserts and reports false when the provider message id
	// was already recorded (conflict, no new row)
	InsertMessage(ctx context.Context, m domain.Message) (bool, error)
	HasProviderMessage(ctx context.Context, providerMessageID string) (bool, error)
	ListMessages(ctx context.Context, requestID string) ([]domain.Message, error)

	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Request, error)
	ListByCreditor(ctx context.Context, creditorID string, limit int) ([]domain.Request, error)
	StatusCounts(ctx context.Context, f domain.StatsFilter) ([]domain.StatusCount, error)
}

type (
	// PG is a Postgres implementation of the correspondence repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const requestCols = `
	id, reference_id, user_id, creditor_id, status,
	created_at, sent_at, response_due, responded_at, reminder_sent_at`

func scanRequest(row repokit.Row) (domain.Request, error) {
	var r domain.Request
	err := row.Scan(
		&r.ID, &r.ReferenceID, &r.UserID, &r.CreditorID, &r.Status,
		&r.CreatedAt, &r.SentAt, &r.ResponseDue, &r.RespondedAt, &r.ReminderSentAt,
	)
	return r, err
}

// PairLock takes a transaction scoped advisory lock for the pair so two
// concurrent creates cannot both pass the cooldown gate
func (r *queries) PairLock(ctx context.Context, userID, creditorID string) error {
	_, err := r.q.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		userID, creditorID,
	)
	return err
}

func (r *queries) InsertRequest(ctx context.Context, req domain.Request) error {
	const sql = `
		INSERT INTO requests (id, reference_id, user_id, creditor_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, sql,
		req.ID, req.ReferenceID, req.UserID, req.CreditorID, req.Status, req.CreatedAt,
	)
	return perr.FromPostgres(err, "insert request")
}

func (r *queries) Get(ctx context.Context, id string) (domain.Request, error) {
	row := r.q.QueryRow(ctx, `SELECT `+requestCols+` FROM requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, notFoundOrDB(err, "request %s", id)
	}
	return req, nil
}

func (r *queries) GetForUpdate(ctx context.Context, id string) (domain.Request, error) {
	row := r.q.QueryRow(ctx, `SELECT `+requestCols+` FROM requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, notFoundOrDB(err, "request %s", id)
	}
	return req, nil
}

// LatestForPair returns the newest request for the pair, perr.ErrNotFound when none
func (r *queries) LatestForPair(ctx context.Context, userID, creditorID string) (domain.Request, error) {
	const sql = `
		SELECT ` + requestCols + `
		FROM requests
		WHERE user_id = $1 AND creditor_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.q.QueryRow(ctx, sql, userID, creditorID)
	req, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, notFoundOrDB(err, "latest request for %s/%s", userID, creditorID)
	}
	return req, nil
}

func (r *queries) SetSent(ctx context.Context, id string, sentAt, responseDue time.Time) error {
	const sql = `
		UPDATE requests
		SET status = $2, sent_at = $3, response_due = $4
		WHERE id = $1
	`
	return execOne(ctx, r.q, sql, id, domain.StatusSent, sentAt, responseDue)
}

func (r *queries) SetResponded(ctx context.Context, id string, respondedAt time.Time) error {
	const sql = `
		UPDATE requests
		SET status = $2, responded_at = $3
		WHERE id = $1
	`
	return execOne(ctx, r.q, sql, id, domain.StatusResponded, respondedAt)
}

// EscalateDue is the compare-and-swap escalation: only a SENT request whose
// response window has elapsed moves, so a racing responded transition wins
func (r *queries) EscalateDue(ctx context.Context, id string, now time.Time) (bool, error) {
	const sql = `
		UPDATE requests
		SET status = $2
		WHERE id = $1 AND status = $3 AND response_due < $4
	`
	tag, err := r.q.Exec(ctx, sql, id, domain.StatusEscalated, domain.StatusSent, now)
	if err != nil {
		return false, perr.FromPostgres(err, "escalate request")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) InsertMessage(ctx context.Context, m domain.Message) (bool, error) {
	const sql = `
		INSERT INTO messages (
			id, request_id, direction, from_address, to_address, subject,
			body_html, body_text, provider_message_id, in_reply_to, tracking_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (provider_message_id) WHERE provider_message_id IS NOT NULL
		DO NOTHING
	`
	tag, err := r.q.Exec(ctx, sql,
		m.ID, m.RequestID, m.Direction, m.FromAddress, m.ToAddress, m.Subject,
		m.BodyHTML, m.BodyText, m.ProviderMessageID, m.InReplyTo, m.TrackingID, m.OccurredAt,
	)
	if err != nil {
		return false, perr.FromPostgres(err, "insert message")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) HasProviderMessage(ctx context.Context, providerMessageID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM messages WHERE provider_message_id = $1)`
	var exists bool
	if err := r.q.QueryRow(ctx, sql, providerMessageID).Scan(&exists); err != nil {
		return false, perr.FromPostgres(err, "check provider message")
	}
	return exists, nil
}

func (r *queries) ListMessages(ctx context.Context, requestID string) ([]domain.Message, error) {
	const sql = `
		SELECT id, request_id, direction, from_address, to_address, subject,
		       body_html, body_text, provider_message_id, in_reply_to, tracking_id, occurred_at
		FROM messages
		WHERE request_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := r.q.Query(ctx, sql, requestID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list messages")
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.RequestID, &m.Direction, &m.FromAddress, &m.ToAddress, &m.Subject,
			&m.BodyHTML, &m.BodyText, &m.ProviderMessageID, &m.InReplyTo, &m.TrackingID, &m.OccurredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *queries) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Request, error) {
	const sql = `
		SELECT ` + requestCols + `
		FROM requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.listRequests(ctx, sql, userID, limit)
}

func (r *queries) ListByCreditor(ctx context.Context, creditorID string, limit int) ([]domain.Request, error) {
	const sql = `
		SELECT ` + requestCols + `
		FROM requests
		WHERE creditor_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.listRequests(ctx, sql, creditorID, limit)
}

func (r *queries) listRequests(ctx context.Context, sql string, args ...any) ([]domain.Request, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, perr.FromPostgres(err, "list requests")
	}
	defer rows.Close()

	var out []domain.Request
	for rows.Next() {
		var req domain.Request
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

func (r *queries) StatusCounts(ctx context.Context, f domain.StatsFilter) ([]domain.StatusCount, error) {
	const sql = `
		SELECT status, COUNT(*)
		FROM requests
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR creditor_id = $2)
		GROUP BY status
		ORDER BY status
	`
	rows, err := r.q.Query(ctx, sql, f.UserID, f.CreditorID)
	if err != nil {
		return nil, perr.FromPostgres(err, "status counts")
	}
	defer rows.Close()

	var out []domain.StatusCount
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func execOne(ctx context.Context, q repokit.Queryer, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return perr.FromPostgres(err, "update request")
	}
	if tag.RowsAffected() != 1 {
		return perr.NotFoundf("request not found")
	}
	return nil
}

func notFoundOrDB(err error, format string, a ...any) error {
	if isNoRows(err) {
		return perr.NotFoundf(format, a...)
	}
	return perr.FromPostgres(err, "query request")
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, stdsql.ErrNoRows)
}
