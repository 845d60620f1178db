package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"papertrail/internal/modkit"
	"papertrail/internal/modkit/module"
	"papertrail/internal/platform/config"
	"papertrail/internal/platform/logger"
	"papertrail/internal/platform/store"

	corrmod "papertrail/internal/services/correspondence/module"
	wardenmod "papertrail/internal/services/warden/module"
)

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "papertrail-warden",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		fInterval = flag.Duration("interval", 5*time.Minute, "time between sweep passes")
		fLead     = flag.Duration("reminder_lead", 5*24*time.Hour, "how far before the deadline reminders fire")
		fBatch    = flag.Int("batch", 200, "max requests handled per pass")
		fOnce     = flag.Bool("once", false, "run a single sweep and exit")
	)
	flag.Parse()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	corr := corrmod.New(deps)
	corrPorts := module.MustPortsOf[corrmod.Ports](corr)

	mod := wardenmod.New(deps, corrPorts.Store, wardenmod.Options{
		Interval:     *fInterval,
		ReminderLead: *fLead,
		Batch:        *fBatch,
	})
	module.Register(mod.Name(), mod.Ports())

	sweeper := module.MustPortsOf[wardenmod.Ports](mod).Sweeper

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *fOnce {
		stats, err := sweeper.Sweep(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("sweep failed")
		}
		l.Info().
			Int("escalated", stats.Escalated).
			Int("reminded", stats.Reminded).
			Int("skipped", stats.Skipped).
			Msg("sweep complete")
		return
	}

	if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
		l.Fatal().Err(err).Msg("warden stopped")
	}
}
