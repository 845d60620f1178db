// Package module wires the evidence binder using modkit
package module

import (
	"net/http"

	modkit "papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"

	corr "papertrail/internal/services/correspondence/domain"
	edom "papertrail/internal/services/evidence/domain"
	ehttp "papertrail/internal/services/evidence/http"
	esvc "papertrail/internal/services/evidence/service"
)

// Module implements the evidence module
type Module struct {
	deps modkit.Deps
	name string

	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)

	svc *esvc.Svc
}

// Ports declares the injected dependencies this module needs
type Ports struct {
	Query corr.QueryPort
}

// Exposed are the ports this module offers
type Exposed struct {
	Binder edom.BinderPort
}

// New constructs the evidence module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("evidence"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Query == nil {
		panic("evidence module requires correspondence QueryPort")
	}

	svc := esvc.New(deps.PG, injected.Query, deps.CH, esvc.Config{
		CollectiveThreshold: deps.Cfg.Prefix("EVIDENCE_").MayInt("COLLECTIVE_THRESHOLD", 100),
	})

	m := &Module{deps: deps, name: b.Name, mws: b.Mw, svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ehttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the rollup routes at the API root
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Ports returns the exposed ports
func (m *Module) Ports() any { return Exposed{Binder: m.svc} }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix (routes are absolute)
func (m *Module) Prefix() string { return "" }
