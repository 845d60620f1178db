// Package http provides http transport for the requests API
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	perr "papertrail/internal/platform/errors"

	"papertrail/internal/modkit/httpkit"
	"papertrail/internal/services/correspondence/domain"
	ddom "papertrail/internal/services/dispatch/domain"
	edom "papertrail/internal/services/evidence/domain"
)

// Deps are the ports the requests API fans out to
type Deps struct {
	Query    domain.QueryPort
	Sender   ddom.SenderPort
	Evidence edom.BinderPort
}

// Register mounts the requests subtree
func Register(r httpkit.Router, d Deps) {
	h := &handlers{d: d}
	httpkit.PostJSON[ddom.SendInput](r, "/", h.create)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/stats", h.stats)
	httpkit.Get(r, "/{requestID}", h.get)
	httpkit.PostJSON[edom.ViolationInput](r, "/{requestID}/violations", h.attachViolation)
	httpkit.Get(r, "/{requestID}/violations", h.listViolations)
	httpkit.Get(r, "/{requestID}/score", h.score)
}

type handlers struct{ d Deps }

// @Summary Create and dispatch a request
// @Tags requests
// @Accept json
// @Produce json
// @Param payload body ddom.SendInput true "Send"
// @Success 200 {object} ddom.SendResult "ok"
// @Failure 429 {object} httpkit.Envelope "cooldown"
// @Router /requests [post]
func (h *handlers) create(r *stdhttp.Request, in ddom.SendInput) (any, error) {
	return h.d.Sender.Send(r.Context(), in)
}

// @Summary List requests by user or creditor
// @Tags requests
// @Produce json
// @Param user_id query string false "User id"
// @Param creditor_id query string false "Creditor id"
// @Param limit query int false "Max rows"
// @Success 200 {array} domain.Request "ok"
// @Router /requests [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	switch {
	case q.Get("user_id") != "":
		return h.d.Query.ListByUser(r.Context(), q.Get("user_id"), limit)
	case q.Get("creditor_id") != "":
		return h.d.Query.ListByCreditor(r.Context(), q.Get("creditor_id"), limit)
	default:
		return nil, perr.InvalidArgf("user_id or creditor_id is required")
	}
}

// @Summary Request counts by status
// @Tags requests
// @Produce json
// @Param user_id query string false "User id"
// @Param creditor_id query string false "Creditor id"
// @Success 200 {array} domain.StatusCount "ok"
// @Router /requests/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	return h.d.Query.StatusCounts(r.Context(), domain.StatsFilter{
		UserID:     q.Get("user_id"),
		CreditorID: q.Get("creditor_id"),
	})
}

// RequestDetail is a request with its message history and attached violations
type RequestDetail struct {
	domain.RequestView
	Violations []edom.Violation `json:"violations"`
}

// @Summary Request with full message and violation history
// @Tags requests
// @Produce json
// @Param requestID path string true "Request id"
// @Success 200 {object} RequestDetail "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /requests/{requestID} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "requestID")
	view, err := h.d.Query.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	violations, err := h.d.Evidence.List(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return RequestDetail{RequestView: view, Violations: violations}, nil
}

// @Summary Attach a violation
// @Tags evidence
// @Accept json
// @Produce json
// @Param requestID path string true "Request id"
// @Param payload body edom.ViolationInput true "Violation"
// @Success 200 {object} edom.Violation "ok"
// @Failure 409 {object} httpkit.Envelope "request not sent"
// @Router /requests/{requestID}/violations [post]
func (h *handlers) attachViolation(r *stdhttp.Request, in edom.ViolationInput) (any, error) {
	return h.d.Evidence.Attach(r.Context(), chi.URLParam(r, "requestID"), in)
}

// @Summary Violations for a request
// @Tags evidence
// @Produce json
// @Param requestID path string true "Request id"
// @Success 200 {array} edom.Violation "ok"
// @Router /requests/{requestID}/violations [get]
func (h *handlers) listViolations(r *stdhttp.Request) (any, error) {
	return h.d.Evidence.List(r.Context(), chi.URLParam(r, "requestID"))
}

// @Summary Aggregate severity score
// @Tags evidence
// @Produce json
// @Param requestID path string true "Request id"
// @Success 200 {object} edom.ScoreView "ok"
// @Router /requests/{requestID}/score [get]
func (h *handlers) score(r *stdhttp.Request) (any, error) {
	return h.d.Evidence.Score(r.Context(), chi.URLParam(r, "requestID"))
}
