package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"quote-service/internal/config"
	"quote-service/internal/db"
	"quote-service/internal/logging"
	"quote-service/internal/migrate"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|version]\n", os.Args[0])
	}
	flag.Parse()
	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	cfg := config.FromEnv()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat, "migrate")
	if cfg.DBConnString == "" {
		logger.Fatal().Msg("DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, 1)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	switch cmd {
	case "up":
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	case "down":
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("rollback migration")
		}
		logger.Info().Msg("last migration rolled back")
	case "version":
		version, dirty, ok, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("read schema version")
		}
		if !ok {
			logger.Info().Msg("no migrations applied")
			return
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
	default:
		flag.Usage()
		os.Exit(2)
	}
}
