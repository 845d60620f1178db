// Package sendgrid provides the SendGrid v3 mail-send delivery adapter
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	perr "papertrail/internal/platform/errors"
	"papertrail/internal/platform/logger"

	"papertrail/internal/services/dispatch/domain"
)

const (
	baseURLDefault = "https://api.sendgrid.com"
	defaultTimeout = 10 * time.Second
)

// Options configures the Client
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client sends mail through the SendGrid v3 API
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// StatusError is a non-2xx provider response
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.Status, e.Body)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("sendgrid"),
	}
}

type v3Address struct {
	Email string `json:"email"`
}

type v3Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type v3Personalization struct {
	To []v3Address `json:"to"`
}

type v3Send struct {
	Personalizations []v3Personalization `json:"personalizations"`
	From             v3Address           `json:"from"`
	ReplyTo          *v3Address          `json:"reply_to,omitempty"`
	Subject          string              `json:"subject"`
	Content          []v3Content         `json:"content"`
	CustomArgs       map[string]string   `json:"custom_args,omitempty"`
}

// Deliver implements domain.DeliveryPort. A 202 without a message id is a
// provider error, never a silent success.
func (c *Client) Deliver(ctx context.Context, m domain.OutboundMail) (string, error) {
	payload := v3Send{
		Personalizations: []v3Personalization{{To: []v3Address{{Email: m.To}}}},
		From:             v3Address{Email: m.From},
		Subject:          m.Subject,
	}
	if m.ReplyTo != "" {
		payload.ReplyTo = &v3Address{Email: m.ReplyTo}
	}
	// text part first, per the v3 contract
	if m.Text != "" {
		payload.Content = append(payload.Content, v3Content{Type: "text/plain", Value: m.Text})
	}
	if m.HTML != "" {
		payload.Content = append(payload.Content, v3Content{Type: "text/html", Value: m.HTML})
	}
	if m.IdempotencyKey != "" {
		payload.CustomArgs = map[string]string{"idempotency_key": m.IdempotencyKey}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "sendgrid marshal failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "sendgrid new request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if m.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", m.IdempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "sendgrid do failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		sErr := &StatusError{Status: resp.StatusCode, Body: string(raw)}
		code := perr.ErrorCodeDispatchFailed
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			code = perr.ErrorCodeUnavailable
		}
		return "", perr.Wrap(sErr, code, "sendgrid send rejected")
	}

	pmid := resp.Header.Get("X-Message-Id")
	if pmid == "" {
		return "", perr.DispatchFailedf("sendgrid accepted without a message id")
	}

	c.log.Debug().
		Str("to", m.To).
		Str("provider_message_id", pmid).
		Msg("mail accepted")

	return pmid, nil
}
