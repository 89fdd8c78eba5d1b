package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sakif/volunteer-connect/internal/config"
	"github.com/sakif/volunteer-connect/internal/repository/sqlstore"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Create missing tables and indexes, then exit",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		db, err := sqlstore.Open(c.Context, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(c.Context); err != nil {
			return err
		}
		logger.Info("database migrated", slog.String("dialect", db.Dialect()))
		return nil
	},
}
