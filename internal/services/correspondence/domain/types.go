// Package domain defines the types and interfaces for the correspondence service
package domain

import "time"

// Status is the request lifecycle state
type Status string

// Request lifecycle states. Transitions are monotonic: PENDING -> SENT ->
// RESPONDED or ESCALATED, and ESCALATED -> RESPONDED for late replies.
const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusResponded Status = "RESPONDED"
	StatusEscalated Status = "ESCALATED"
)

// Direction marks a message as outbound or inbound
type Direction string

// Message directions
const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// ResponseWindow is the statutory response deadline measured from sent_at
const ResponseWindow = 30 * 24 * time.Hour

// Cooldown is the minimum interval between requests to the same creditor
// by the same user, measured from the previous request's created_at
const Cooldown = 7 * 24 * time.Hour

// Request is one legal information request directed at one creditor
// on behalf of one user. Requests are never physically deleted.
type Request struct {
	ID             string     `json:"id"`
	ReferenceID    string     `json:"reference_id"`
	UserID         string     `json:"user_id"`
	CreditorID     string     `json:"creditor_id"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ResponseDue    *time.Time `json:"response_due,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
}

// Terminal reports whether the request has reached a resolved state
func (r Request) Terminal() bool {
	return r.Status == StatusResponded || r.Status == StatusEscalated
}

// Message is one outbound or inbound email tied to exactly one Request
type Message struct {
	ID                string     `json:"id"`
	RequestID         string     `json:"request_id"`
	Direction         Direction  `json:"direction"`
	FromAddress       string     `json:"from_address"`
	ToAddress         string     `json:"to_address"`
	Subject           string     `json:"subject"`
	BodyHTML          string     `json:"body_html,omitempty"`
	BodyText          string     `json:"body_text,omitempty"`
	ProviderMessageID *string    `json:"provider_message_id,omitempty"`
	InReplyTo         *string    `json:"in_reply_to,omitempty"`
	TrackingID        string     `json:"tracking_id"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// MessageDraft carries message content before it is bound to a request row
type MessageDraft struct {
	Direction         Direction
	FromAddress       string
	ToAddress         string
	Subject           string
	BodyHTML          string
	BodyText          string
	ProviderMessageID *string
	InReplyTo         *string
	TrackingID        string
	OccurredAt        time.Time
}

// RequestView is a request together with its message history
type RequestView struct {
	Request  Request   `json:"request"`
	Messages []Message `json:"messages"`
}

// StatusCount is one bucket of the status statistics
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// StatsFilter narrows statistics and listings
type StatsFilter struct {
	UserID     string
	CreditorID string
}
