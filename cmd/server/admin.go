package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/config"
	"github.com/sakif/volunteer-connect/internal/repository/sqlstore"
	"github.com/sakif/volunteer-connect/internal/service"
)

// createAdminCommand creates an admin regardless of ALLOW_ADMIN_SIGNUP, so
// a fresh deployment can get its first admin without opening sign-up.
var createAdminCommand = &cli.Command{
	Name:  "create-admin",
	Usage: "Create an admin account",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "at least 8 characters",
			EnvVars:  []string{"ADMIN_PASSWORD"},
			Required: true,
		},
	},
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

		access, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, auth.AudienceAccess)
		if err != nil {
			return err
		}
		refresh, err := auth.NewTokenService(cfg.JWTRefreshSecret, cfg.RefreshTokenTTL, auth.AudienceRefresh)
		if err != nil {
			return err
		}

		svc := service.NewAuthService(db.Users(), db.NGOs(), db.Volunteers(), auth.NewPasswordService(), access, refresh, false, logger)
		u, err := svc.CreateAdmin(c.Context, c.String("username"), c.String("email"), c.String("password"))
		if err != nil {
			return fmt.Errorf("creating admin: %w", err)
		}

		logger.Info("admin created", slog.String("id", u.ID), slog.String("username", u.Username))
		return nil
	},
}
