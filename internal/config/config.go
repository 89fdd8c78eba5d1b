// Package config loads the server configuration from the environment.
//
// Every setting has an environment variable of the same name in upper
// snake case (see the envconfig tags). Defaults are chosen so that
// `JWT_SECRET=... JWT_REFRESH_SECRET=... server` runs locally against a
// SQLite file with uploads on disk and e-mail disabled.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Port        int    `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"data/volunteer-connect.db" validate:"required"`

	JWTSecret        string        `envconfig:"JWT_SECRET" validate:"required,min=16"`
	JWTRefreshSecret string        `envconfig:"JWT_REFRESH_SECRET" validate:"required,min=16,nefield=JWTSecret"`
	AccessTokenTTL   time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h" validate:"gt=0"`
	RefreshTokenTTL  time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h" validate:"gtfield=AccessTokenTTL"`
	AllowAdminSignup bool          `envconfig:"ALLOW_ADMIN_SIGNUP" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	FrontendURL        string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173" validate:"url"`

	UploadDir       string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes  int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880" validate:"gt=0"`
	StorageBackend  string `envconfig:"STORAGE_BACKEND" default:"local" validate:"oneof=local s3"`
	S3Bucket        string `envconfig:"S3_BUCKET" validate:"required_if=StorageBackend s3"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL" validate:"omitempty,url"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" validate:"omitempty,email"`

	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET" validate:"required_with=GitHubClientID"`
	GitHubCallbackURL  string `envconfig:"GITHUB_CALLBACK_URL"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.GitHubCallbackURL == "" {
		c.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Port)
	}

	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate runs the struct rules on c.
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return fmt.Errorf("config validation failed: SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

// SMTPEnabled reports whether outgoing e-mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// GitHubEnabled reports whether GitHub sign-in routes should be registered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Postgres reports whether DatabaseURL points at a PostgreSQL server rather
// than a SQLite file.
func (c *Config) Postgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") ||
		strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SlogLevel maps LogLevel onto slog's levels.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
