// Package requests wires the requests API subtree using modkit
package requests

import (
	"net/http"

	modkit "papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"

	cdom "papertrail/internal/services/correspondence/domain"
	chttp "papertrail/internal/services/correspondence/http"
	ddom "papertrail/internal/services/dispatch/domain"
	edom "papertrail/internal/services/evidence/domain"
)

// Module implements the requests API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)
}

// Ports declares the injected ports this API module requires
type Ports struct {
	Query    cdom.QueryPort
	Sender   ddom.SenderPort
	Evidence edom.BinderPort
}

// New constructs the requests API module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("requests"),
		modkit.WithPrefix("/requests"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Query == nil || injected.Sender == nil || injected.Evidence == nil {
		panic("requests API module requires Query, Sender and Evidence ports")
	}

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		chttp.Register(r, chttp.Deps{
			Query:    injected.Query,
			Sender:   injected.Sender,
			Evidence: injected.Evidence,
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, m.register)
}

// Ports returns nothing, the module only consumes ports
func (m *Module) Ports() any { return nil }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
