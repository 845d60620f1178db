// Package module wires the dispatcher and exposes its SenderPort
package module

import (
	"time"

	"papertrail/internal/adapters/delivery/sendgrid"
	"papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"
	corr "papertrail/internal/services/correspondence/domain"
	dom "papertrail/internal/services/dispatch/domain"
	"papertrail/internal/services/dispatch/service"
)

// Module defines the dispatch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the dispatch module. It needs the correspondence ports so
// sending and marking SENT share one transaction path
func New(deps modkit.Deps, store corr.StorePort, query corr.QueryPort, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.Domain != "" {
		opts.Domain = overrides.Domain
	}
	if overrides.From != "" {
		opts.From = overrides.From
	}
	if overrides.MaxAttempts != 0 {
		opts.MaxAttempts = overrides.MaxAttempts
	}
	if overrides.RetryBaseMs != 0 {
		opts.RetryBaseMs = overrides.RetryBaseMs
	}
	if overrides.SendgridAPIKey != "" {
		opts.SendgridAPIKey = overrides.SendgridAPIKey
	}

	var delivery dom.DeliveryPort
	if opts.SendgridAPIKey != "" {
		delivery = sendgrid.NewClient(sendgrid.Options{APIKey: opts.SendgridAPIKey})
	} else {
		delivery = sendgrid.NewLogged()
	}

	svc := service.New(store, query, delivery, service.Config{
		Domain:      opts.Domain,
		From:        opts.From,
		MaxAttempts: opts.MaxAttempts,
		RetryBase:   time.Duration(opts.RetryBaseMs) * time.Millisecond,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Sender: svc}
	return m
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "dispatch" }

// Prefix returns the module route prefix (none, sending rides the requests API)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
