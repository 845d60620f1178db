// Package http provides http transport for the inbound correlator
package http

import (
	stdhttp "net/http"
	"strconv"

	"papertrail/internal/modkit/httpkit"
	"papertrail/internal/services/inbound/domain"
)

// Register mounts the webhook and the review listing
func Register(r httpkit.Router, s domain.CorrelatorPort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.Event](r, "/webhooks/inbound", h.webhook)
	httpkit.Get(r, "/inbound/unmatched", h.unmatched)
}

type handlers struct{ svc domain.CorrelatorPort }

// @Summary Inbound mail webhook
// @Tags inbound
// @Accept json
// @Produce json
// @Param payload body domain.Event true "Provider event"
// @Success 200 {object} domain.Result "ok"
// @Router /webhooks/inbound [post]
func (h *handlers) webhook(r *stdhttp.Request, in domain.Event) (any, error) {
	return h.svc.Handle(r.Context(), in)
}

// @Summary Unmatched inbound events
// @Tags inbound
// @Produce json
// @Param limit query int false "Max rows"
// @Success 200 {array} domain.UnmatchedEvent "ok"
// @Router /inbound/unmatched [get]
func (h *handlers) unmatched(r *stdhttp.Request) (any, error) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return h.svc.ListUnmatched(r.Context(), limit)
}
