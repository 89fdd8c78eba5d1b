package main

import (
	"github.com/urfave/cli/v2"

	"github.com/sakif/volunteer-connect/internal/config"
	"github.com/sakif/volunteer-connect/internal/server"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	srv, err := server.Open(c.Context, cfg, logger)
	if err != nil {
		return err
	}

	// Start blocks until SIGINT or SIGTERM.
	return srv.Start()
}
