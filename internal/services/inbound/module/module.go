// Package module wires the inbound correlator using modkit
package module

import (
	"net/http"

	modkit "papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"

	corr "papertrail/internal/services/correspondence/domain"
	idom "papertrail/internal/services/inbound/domain"
	ihttp "papertrail/internal/services/inbound/http"
	isvc "papertrail/internal/services/inbound/service"
)

// Module implements the inbound module
type Module struct {
	deps modkit.Deps
	name string

	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)

	svc *isvc.Svc
}

// Ports declares the injected dependencies this module needs
type Ports struct {
	Store corr.StorePort
}

// Exposed are the ports this module offers
type Exposed struct {
	Correlator idom.CorrelatorPort
}

// New constructs the inbound module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("inbound"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Store == nil {
		panic("inbound module requires correspondence StorePort")
	}

	svc := isvc.New(deps.PG, injected.Store, isvc.Config{
		UnmatchedLimit: deps.Cfg.Prefix("INBOUND_").MayInt("UNMATCHED_LIMIT", 100),
	})

	m := &Module{deps: deps, name: b.Name, mws: b.Mw, svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ihttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the webhook and review routes at the API root
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Ports returns the exposed ports
func (m *Module) Ports() any { return Exposed{Correlator: m.svc} }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix (routes are absolute)
func (m *Module) Prefix() string { return "" }
