// Command migrate runs the embedded goose migrations against DATABASE_URL.
//
//	migrate up | down | status | version | redo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/config"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/infrastructure/db/postgres"
	"github.com/AgongaAlpha/vanguardescrow-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|status|version|redo> [args]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "vanguardescrow-migrate", Env: cfg.Env})

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{MaxOpenConns: 1}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}

	command := os.Args[1]
	err = postgres.RunMigrationCommand(ctx, db, command, os.Args[2:]...)
	_ = db.Close()
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	log.Info().Str("command", command).Msg("migration finished")
}
