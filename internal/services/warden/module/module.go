// Package module wires the deadline warden
package module

import (
	"context"

	modkit "papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"
	corr "papertrail/internal/services/correspondence/domain"
	"papertrail/internal/services/warden/service"
)

// Module defines the warden worker module
type Module struct {
	deps modkit.Deps
	svc  *service.Svc
}

// Ports holds the ports exposed by the warden module
type Ports struct {
	Sweeper interface {
		Run(ctx context.Context) error
		Sweep(ctx context.Context) (service.SweepStats, error)
	}
}

// New constructs the warden module
func New(deps modkit.Deps, store corr.StorePort, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.Interval != 0 {
		opts.Interval = overrides.Interval
	}
	if overrides.ReminderLead != 0 {
		opts.ReminderLead = overrides.ReminderLead
	}
	if overrides.Batch != 0 {
		opts.Batch = overrides.Batch
	}

	svc := service.New(deps.PG, store, service.NewLogNotifier(), service.Config{
		Interval:     opts.Interval,
		ReminderLead: opts.ReminderLead,
		Batch:        opts.Batch,
	})
	return &Module{deps: deps, svc: svc}
}

// Ports returns the module ports
func (m *Module) Ports() any { return Ports{Sweeper: m.svc} }

// Name returns the module name
func (m *Module) Name() string { return "warden" }

// Prefix returns the module config prefix (none for worker-only service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
