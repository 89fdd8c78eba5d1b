// Command server runs the volunteer-connect API.
//
//	server                 start the HTTP server (same as "server serve")
//	server migrate         create missing tables and exit
//	server create-admin    bootstrap an admin account
//
// All settings come from the environment; see internal/config.
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sakif/volunteer-connect/internal/config"
)

func main() {
	app := &cli.App{
		Name:   "volunteer-connect",
		Usage:  "Volunteer coordination API",
		Action: serve,
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			createAdminCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
