package main

import (
	"database/sql"
	"flag"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"papertrail/db"
	"papertrail/internal/platform/config"
	"papertrail/internal/platform/logger"
)

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	var (
		fCmd = flag.String("cmd", "up", "goose command: up, down, status, version")
	)
	flag.Parse()

	conn, err := sql.Open("pgx", dbCfg.MustString("DBURL"))
	if err != nil {
		l.Fatal().Err(err).Msg("open database failed")
	}
	defer func() { _ = conn.Close() }()

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		l.Fatal().Err(err).Msg("set dialect failed")
	}

	switch *fCmd {
	case "up":
		err = goose.Up(conn, "migrations")
	case "down":
		err = goose.Down(conn, "migrations")
	case "status":
		err = goose.Status(conn, "migrations")
	case "version":
		err = goose.Version(conn, "migrations")
	default:
		l.Fatal().Str("cmd", *fCmd).Msg("unknown command")
	}
	if err != nil {
		l.Fatal().Err(err).Str("cmd", *fCmd).Msg("migration failed")
	}

	l.Info().Str("cmd", *fCmd).Msg("migrations applied")
}
