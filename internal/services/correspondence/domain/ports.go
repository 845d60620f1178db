package domain

import "context"

// StorePort is the transactional write surface for request lifecycle changes.
// Every mutation locks the request row so concurrent transitions serialize.
type StorePort interface {
	// Create persists a new PENDING request, enforcing the per-pair cooldown
	Create(ctx context.Context, userID, creditorID string) (Request, error)

	// MarkSent transitions PENDING -> SENT and stores the outbound message
	// in the same transaction
	MarkSent(ctx context.Context, requestID string, out MessageDraft) (Request, error)

	// RecordInbound stores an inbound message and transitions to RESPONDED
	// when the request was SENT or ESCALATED. duplicate is true when the
	// provider message id was already recorded (no new row, no transition).
	RecordInbound(ctx context.Context, requestID string, in MessageDraft) (req Request, duplicate bool, err error)

	// Escalate transitions SENT -> ESCALATED iff the response window elapsed.
	// Losing a race against RecordInbound yields ErrorCodeInvalidTransition.
	Escalate(ctx context.Context, requestID string) (Request, error)
}

// QueryPort is the read surface over requests and messages
type QueryPort interface {
	Get(ctx context.Context, requestID string) (RequestView, error)
	LatestForPair(ctx context.Context, userID, creditorID string) (Request, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Request, error)
	ListByCreditor(ctx context.Context, creditorID string, limit int) ([]Request, error)
	StatusCounts(ctx context.Context, f StatsFilter) ([]StatusCount, error)
}
