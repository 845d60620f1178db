// Package repo provides the evidence repository implementation
package repo

import (
	"context"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/repokit"
	"papertrail/internal/services/evidence/domain"
)

// Repo is the evidence persistence surface
type Repo interface {
	Insert(ctx context.Context, v domain.Violation) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, requestID string) ([]domain.Violation, error)
	Rollup(ctx context.Context, creditorID string) (domain.CreditorRollup, error)
}

type (
	// PG is a Postgres implementation of the evidence repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Insert(ctx context.Context, v domain.Violation) error {
	const sql = `
		INSERT INTO violations (
			id, request_id, type, severity, confidence,
			evidence_refs, estimated_damage, supersedes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.Exec(ctx, sql,
		v.ID, v.RequestID, v.Type, v.Severity, v.Confidence,
		v.EvidenceRefs, v.EstimatedDamage, v.Supersedes, v.CreatedAt,
	)
	return perr.FromPostgres(err, "insert violation")
}

func (r *queries) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM violations WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, perr.FromPostgres(err, "check violation")
	}
	return exists, nil
}

func (r *queries) List(ctx context.Context, requestID string) ([]domain.Violation, error) {
	const sql = `
		SELECT id, request_id, type, severity, confidence,
		       evidence_refs, estimated_damage, supersedes, created_at
		FROM violations
		WHERE request_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.q.Query(ctx, sql, requestID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list violations")
	}
	defer rows.Close()

	var out []domain.Violation
	for rows.Next() {
		var v domain.Violation
		if err := rows.Scan(
			&v.ID, &v.RequestID, &v.Type, &v.Severity, &v.Confidence,
			&v.EvidenceRefs, &v.EstimatedDamage, &v.Supersedes, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Rollup sums exposure over every request the creditor has. Superseded
// violations stay in the damage sum only through their replacements
func (r *queries) Rollup(ctx context.Context, creditorID string) (domain.CreditorRollup, error) {
	const sql = `
		SELECT
			COUNT(DISTINCT r.id),
			COUNT(v.id),
			COALESCE(SUM(v.estimated_damage), 0)
		FROM requests r
		LEFT JOIN violations v
			ON v.request_id = r.id
			AND NOT EXISTS (SELECT 1 FROM violations s WHERE s.supersedes = v.id)
		WHERE r.creditor_id = $1
	`
	var out domain.CreditorRollup
	out.CreditorID = creditorID
	err := r.q.QueryRow(ctx, sql, creditorID).Scan(
		&out.Requests, &out.Violations, &out.EstimatedDamage,
	)
	if err != nil {
		return domain.CreditorRollup{}, perr.FromPostgres(err, "creditor rollup")
	}
	return out, nil
}
