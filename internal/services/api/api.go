// Package api provides the HTTP API for the application
package api

import (
	"papertrail/internal/platform/config"
	"papertrail/internal/platform/logger"
	phttp "papertrail/internal/platform/net/http"
	"papertrail/internal/platform/store"

	"papertrail/internal/modkit"
	"papertrail/internal/modkit/httpkit"
	"papertrail/internal/modkit/module"
	"papertrail/internal/modkit/swaggerkit"

	metamod "papertrail/internal/services/api/meta/module"
	requestsmod "papertrail/internal/services/api/requests"

	corrmod "papertrail/internal/services/correspondence/module"
	dispatchmod "papertrail/internal/services/dispatch/module"
	evidencemod "papertrail/internal/services/evidence/module"
	inboundmod "papertrail/internal/services/inbound/module"

	// registers the generated swagger doc
	_ "papertrail/internal/services/api/docs"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// Core correspondence module first: every other module hangs off its ports
	corr := corrmod.New(deps)
	corrPorts := module.MustPortsOf[corrmod.Ports](corr)

	dispatch := dispatchmod.New(deps, corrPorts.Store, corrPorts.Query, dispatchmod.Options{})
	sender := module.MustPortsOf[dispatchmod.Ports](dispatch).Sender

	evidence := evidencemod.New(deps, modkit.WithPorts(evidencemod.Ports{
		Query: corrPorts.Query,
	}))
	binder := module.MustPortsOf[evidencemod.Exposed](evidence).Binder

	inbound := inboundmod.New(deps, modkit.WithPorts(inboundmod.Ports{
		Store: corrPorts.Store,
	}))

	requests := requestsmod.New(deps, modkit.WithPorts(requestsmod.Ports{
		Query:    corrPorts.Query,
		Sender:   sender,
		Evidence: binder,
	}))

	mods := []module.Module{
		metamod.New(deps),
		corr,
		dispatch,
		evidence,
		inbound,
		requests,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			m.MountRoutes(api)
		}
	})
}
