// Package domain holds inbound correlation types
package domain

import (
	"context"
	"time"
)

// Outcome classifies a webhook event after correlation
type Outcome string

// Outcome values
const (
	OutcomeRecorded  Outcome = "RECORDED"
	OutcomeDuplicate Outcome = "DUPLICATE"
	OutcomeUnmatched Outcome = "UNMATCHED"
)

// Headers carries the mail headers the correlator cares about
type Headers struct {
	MessageID  string `json:"message_id"`
	InReplyTo  string `json:"in_reply_to"`
	References string `json:"references"`
}

// Attachment is an inbound attachment reference (metadata only, bodies are
// not persisted)
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Event is a parsed inbound mail event from the provider webhook
type Event struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text"`
	HTML        string       `json:"html"`
	Headers     Headers      `json:"headers"`
	Attachments []Attachment `json:"attachments"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Result is what the correlator decided about one event
type Result struct {
	Outcome   Outcome `json:"outcome"`
	RequestID string  `json:"request_id,omitempty"`
}

// UnmatchedEvent is an inbound event no open request claimed. Kept for
// operator review, never guessed into a request
type UnmatchedEvent struct {
	ID          string    `json:"id"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	Subject     string    `json:"subject"`
	Reason      string    `json:"reason"`
	ReceivedAt  time.Time `json:"received_at"`
}

// CorrelatorPort accepts provider webhook events
type CorrelatorPort interface {
	Handle(ctx context.Context, ev Event) (Result, error)
	ListUnmatched(ctx context.Context, limit int) ([]UnmatchedEvent, error)
}
