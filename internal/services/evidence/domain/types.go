// Package domain holds evidence binder types
package domain

import (
	"context"
	"time"
)

// Severity grades a violation
type Severity string

// Severity values
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Violation is one recorded statutory violation attached to a request.
// Rows are append only; corrections supersede rather than mutate
type Violation struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	Type            string    `json:"type"`
	Severity        Severity  `json:"severity"`
	Confidence      float64   `json:"confidence"`
	EvidenceRefs    []string  `json:"evidence_refs"`
	EstimatedDamage float64   `json:"estimated_damage"`
	Supersedes      *string   `json:"supersedes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ViolationInput is the attach payload
type ViolationInput struct {
	Type            string   `json:"type" validate:"required"`
	Severity        Severity `json:"severity" validate:"required,oneof=critical high medium low"`
	Confidence      float64  `json:"confidence" validate:"gte=0,lte=1"`
	EvidenceRefs    []string `json:"evidence_refs"`
	EstimatedDamage float64  `json:"estimated_damage" validate:"gte=0"`
	Supersedes      *string  `json:"supersedes,omitempty"`
}

// ScoreView is the computed severity score for one request
type ScoreView struct {
	RequestID  string  `json:"request_id"`
	Score      float64 `json:"score"`
	Violations int     `json:"violations"`
}

// CreditorRollup aggregates exposure per creditor
type CreditorRollup struct {
	CreditorID      string  `json:"creditor_id"`
	Requests        int     `json:"requests"`
	Violations      int     `json:"violations"`
	EstimatedDamage float64 `json:"estimated_damage"`
	OverThreshold   bool    `json:"over_threshold"`
}

// BinderPort is the evidence surface other modules consume
type BinderPort interface {
	Attach(ctx context.Context, requestID string, in ViolationInput) (Violation, error)
	List(ctx context.Context, requestID string) ([]Violation, error)
	Score(ctx context.Context, requestID string) (ScoreView, error)
	Rollup(ctx context.Context, creditorID string) (CreditorRollup, error)
}
