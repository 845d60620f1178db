// Package module wires the correspondence store and exposes its ports
package module

import (
	modkit "papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"
	dom "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/correspondence/repo"
	"papertrail/internal/services/correspondence/service"
)

// Module defines the correspondence core module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// Ports holds the ports exposed by the correspondence module
type Ports struct {
	Store dom.StorePort
	Query dom.QueryPort
}

// New constructs the correspondence module
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), service.Config{
		HardLimit: deps.Cfg.Prefix("CORRESPONDENCE_").MayInt("LIST_LIMIT", 100),
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Store: svc,
		Query: svc,
	}
	return m
}

// Ports returns the module ports (Store, Query)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "correspondence" }

// Prefix returns the module route prefix (the requests API owns the routes)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
