// Command migrate runs goose commands against the embedded triptrack migrations.
//
//	migrate up
//	migrate down
//	migrate status
//	migrate up-to 00002
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"triptrack/config"
	"triptrack/internal/errors"
	logs "triptrack/internal/infra/log"
	"triptrack/internal/infra/persistence/migrations"

	pgLib "github.com/slighter12/go-lib/database/postgres"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|redo|reset|status|version|up-to|down-to> [version]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]...); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args ...string) error {
	// Only the database section is needed; token secrets are not validated here.
	cfg, err := config.LoadWithEnv[config.Config]("config", "config", "../config", "../../config")
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if cfg.Postgres == nil {
		return errors.New("postgres config is missing")
	}

	logger, err := logs.NewWithWriter(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := pgLib.New(cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "failed to create PostgreSQL client")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}
	defer sqlDB.Close()

	logger.Info("Running migrations", slog.String("command", command))
	if err := migrations.Run(ctx, sqlDB, command, args...); err != nil {
		return err
	}
	logger.Info("Migrations finished", slog.String("command", command))

	return nil
}
