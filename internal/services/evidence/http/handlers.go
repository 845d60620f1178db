// Package http provides http transport for evidence rollups
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"papertrail/internal/modkit/httpkit"
	"papertrail/internal/services/evidence/domain"
)

// Register mounts the creditor rollup
func Register(r httpkit.Router, s domain.BinderPort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/creditors/{creditorID}/rollup", h.rollup)
}

type handlers struct{ svc domain.BinderPort }

// @Summary Creditor exposure rollup
// @Tags evidence
// @Produce json
// @Param creditorID path string true "Creditor id"
// @Success 200 {object} domain.CreditorRollup "ok"
// @Router /creditors/{creditorID}/rollup [get]
func (h *handlers) rollup(r *stdhttp.Request) (any, error) {
	return h.svc.Rollup(r.Context(), chi.URLParam(r, "creditorID"))
}
