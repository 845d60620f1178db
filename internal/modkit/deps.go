package modkit

import (
	"papertrail/internal/modkit/repokit"
	"papertrail/internal/platform/config"
	"papertrail/internal/platform/logger"
	"papertrail/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
