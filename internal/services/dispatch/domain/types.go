// Package domain defines the types and interfaces for the dispatch service
package domain

import (
	"context"

	corr "papertrail/internal/services/correspondence/domain"
)

// SendInput describes one outbound legal request to deliver
type SendInput struct {
	UserID     string `json:"user_id" validate:"required"`
	CreditorID string `json:"creditor_id" validate:"required"`
	To         string `json:"to" validate:"required,email"`
	Subject    string `json:"subject,omitempty"`
	BodyHTML   string `json:"body_html,omitempty"`
	BodyText   string `json:"body_text,omitempty"`
}

// SendResult is the outcome of a successful dispatch
type SendResult struct {
	Request           corr.Request `json:"request"`
	ProviderMessageID string       `json:"provider_message_id"`
}

// OutboundMail is the provider-facing send contract
type OutboundMail struct {
	To             string
	From           string
	ReplyTo        string
	Subject        string
	HTML           string
	Text           string
	IdempotencyKey string
}

// SenderPort orchestrates create + deliver + mark sent
type SenderPort interface {
	Send(ctx context.Context, in SendInput) (SendResult, error)
}

// DeliveryPort is the external delivery collaborator. A successful delivery
// always yields a provider message id, never a silent success.
type DeliveryPort interface {
	Deliver(ctx context.Context, m OutboundMail) (providerMessageID string, err error)
}
