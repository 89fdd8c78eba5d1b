// Package server is the composition root: it builds the stores, services
// and handlers from a Config, mounts them on a chi router and runs the HTTP
// server until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/config"
	"github.com/sakif/volunteer-connect/internal/handler"
	"github.com/sakif/volunteer-connect/internal/middleware"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/notify"
	"github.com/sakif/volunteer-connect/internal/repository/sqlstore"
	"github.com/sakif/volunteer-connect/internal/service"
	"github.com/sakif/volunteer-connect/internal/storage"
)

// Deps are the external resources the server is built on. Open creates
// them from the Config; tests pass their own.
type Deps struct {
	DB       *sqlstore.DB
	Store    storage.Store
	Notifier notify.Notifier

	// Passwords defaults to the production bcrypt cost when nil.
	Passwords *auth.PasswordService
}

type Server struct {
	router     *chi.Mux
	config     *config.Config
	logger     *slog.Logger
	db         *sqlstore.DB
	dispatcher *notify.Dispatcher
}

// Open connects to the database, applies migrations, prepares the upload
// backend and the notifier, and returns a ready Server. The Server owns
// everything it opened; Start releases it on shutdown.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	var (
		notifier   notify.Notifier = notify.Nop{}
		dispatcher *notify.Dispatcher
	)
	if cfg.SMTPEnabled() {
		smtp := notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		dispatcher = notify.NewDispatcher(smtp, notify.DefaultQueueSize, logger)
		dispatcher.Start()
		notifier = dispatcher
	} else {
		logger.Warn("SMTP_HOST not set, e-mail notifications are disabled")
	}

	s, err := New(cfg, Deps{DB: db, Store: store, Notifier: notifier}, logger)
	if err != nil {
		if dispatcher != nil {
			dispatcher.Stop()
		}
		db.Close()
		return nil, err
	}
	s.dispatcher = dispatcher
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		s3, err := storage.NewS3(ctx, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening s3 storage: %w", err)
		}
		return s3, nil
	}
	local, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}
	return local, nil
}

// New wires the router on top of deps. It does not take ownership of
// deps.DB.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.DB == nil || deps.Store == nil {
		return nil, errors.New("server: database and file store are required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     deps.DB,
	}
	if err := s.setupRoutes(deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes builds the service graph and mounts every route. Role gates
// live here; ownership checks live in the services.
func (s *Server) setupRoutes(deps Deps) error {
	cfg := s.config

	access, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, auth.AudienceAccess)
	if err != nil {
		return fmt.Errorf("access tokens: %w", err)
	}
	refresh, err := auth.NewTokenService(cfg.JWTRefreshSecret, cfg.RefreshTokenTTL, auth.AudienceRefresh)
	if err != nil {
		return fmt.Errorf("refresh tokens: %w", err)
	}

	db := deps.DB
	users, ngos, vols := db.Users(), db.NGOs(), db.Volunteers()
	files := storage.NewUploader(deps.Store, cfg.MaxUploadBytes)

	authSvc := service.NewAuthService(users, ngos, vols, deps.Passwords, access, refresh, cfg.AllowAdminSignup, s.logger)
	userSvc := service.NewUserService(users, deps.Passwords, files, s.logger)
	volSvc := service.NewVolunteerService(vols, files, s.logger)
	ngoSvc := service.NewNGOService(ngos, users, files, s.logger)
	adminSvc := service.NewAdminService(users, ngos, vols, db.Stats(), files, deps.Notifier, s.logger)
	eventSvc := service.NewEventService(db.Events(), ngos, files, s.logger)
	attendeeSvc := service.NewAttendeeService(db.Attendees(), db.Events(), ngos, s.logger)
	oppSvc := service.NewOpportunityService(db.Opportunities(), ngos, files, s.logger)
	appSvc := service.NewApplicationService(db.Applications(), db.Opportunities(), ngos, deps.Notifier, s.logger)

	var github *auth.GitHubProvider
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}

	authH := handler.NewAuthHandler(authSvc, github, cfg.FrontendURL, s.logger)
	userH := handler.NewUserHandler(userSvc, files.MaxBytes(), s.logger)
	volH := handler.NewVolunteerHandler(volSvc, files.MaxBytes(), s.logger)
	ngoH := handler.NewNGOHandler(ngoSvc, s.logger)
	adminH := handler.NewAdminHandler(adminSvc, s.logger)
	eventH := handler.NewEventHandler(eventSvc, attendeeSvc, files.MaxBytes(), s.logger)
	oppH := handler.NewOpportunityHandler(oppSvc, appSvc, files.MaxBytes(), s.logger)
	appH := handler.NewApplicationHandler(appSvc, s.logger)

	requireAuth := auth.RequireAuth(access, users)
	optionalAuth := auth.OptionalAuth(access, users)
	role := auth.RequireRole

	const (
		admin     = model.RoleAdmin
		ngo       = model.RoleNGO
		volunteer = model.RoleVolunteer
	)

	// Order matters: the request id must exist before the logger reads it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if local, ok := deps.Store.(*storage.Local); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle(storage.URLPrefix+"*", http.StripPrefix(storage.URLPrefix, fileServer))
	}

	if github != nil {
		s.router.Get("/auth/github/login", authH.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authH.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.HandleRegister)
			r.Post("/login", authH.HandleLogin)
			r.Post("/refresh-token", authH.HandleRefresh)
			r.Post("/logout", authH.HandleLogout)
			r.With(requireAuth).Get("/validate", authH.HandleValidate)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authH.HandleValidate)
			r.Put("/update-email", userH.HandleUpdateEmail)
			r.Put("/update-password", userH.HandleUpdatePassword)
			r.Post("/upload-profile-picture", userH.HandleUploadProfilePicture)
			r.Delete("/delete-profile-picture", userH.HandleDeleteProfilePicture)
			r.Get("/{id}", userH.HandleGet)
		})

		r.Route("/volunteers", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(role(admin, ngo)).Get("/", volH.HandleList)
			r.Group(func(r chi.Router) {
				r.Use(role(volunteer))
				r.Get("/me", volH.HandleMe)
				r.Put("/update-profile", volH.HandleUpdateProfile)
				r.Post("/upload-resume", volH.HandleUploadResume)
				r.Delete("/delete-resume", volH.HandleDeleteResume)
				r.Put("/update-email", userH.HandleUpdateEmail)
				r.Put("/update-password", userH.HandleUpdatePassword)
			})
			r.Get("/{id}", volH.HandleGet)
		})

		r.Route("/ngos", func(r chi.Router) {
			r.Get("/", ngoH.HandleList)
			r.With(requireAuth).Get("/approved", ngoH.HandleListApproved)
			r.With(requireAuth, role(ngo)).Get("/me", ngoH.HandleMe)
			r.With(requireAuth, role(ngo)).Put("/update-profile", ngoH.HandleUpdate)
			r.Get("/{id}", ngoH.HandleGet)
			r.With(requireAuth, role(ngo, admin)).Delete("/{id}", ngoH.HandleDelete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, role(admin))
			r.Patch("/approve-ngo/{id}", adminH.HandleApproveNGO)
			r.Patch("/reject-ngo/{id}", adminH.HandleRejectNGO)
			r.Get("/users", adminH.HandleListUsers)
			r.Delete("/user/{id}", adminH.HandleDeleteUser)
			r.Get("/stats", adminH.HandleStats)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventH.HandleList)
			r.With(optionalAuth).Get("/{id}", eventH.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, role(ngo))
				r.Get("/ngo/mine", eventH.HandleMine)
				r.Post("/", eventH.HandleCreate)
				r.Put("/{id}", eventH.HandleUpdate)
				r.Post("/{id}/upload-poster", eventH.HandleUploadPoster)
			})
			r.With(requireAuth, role(ngo, admin)).Delete("/{id}", eventH.HandleDelete)
			r.With(requireAuth, role(ngo, admin)).Get("/{id}/attendees", eventH.HandleAttendees)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, role(volunteer))
				r.Post("/{id}/rsvp", eventH.HandleRSVP)
				r.Delete("/{id}/rsvp", eventH.HandleCancelRSVP)
			})
		})

		r.Route("/event-attendees", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(role(volunteer)).Get("/mine", eventH.HandleMyRSVPs)
			r.With(role(ngo, admin)).Delete("/{id}", eventH.HandleRemoveAttendee)
		})

		r.Route("/volunteer-opportunities", func(r chi.Router) {
			r.Get("/", oppH.HandleList)
			r.With(optionalAuth).Get("/{id}", oppH.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, role(ngo))
				r.Get("/mine", oppH.HandleMine)
				r.Post("/", oppH.HandleCreate)
				r.Put("/{id}", oppH.HandleUpdate)
				r.Post("/{id}/upload-image", oppH.HandleUploadImage)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, role(ngo, admin))
				r.Delete("/{id}", oppH.HandleDelete)
				r.Get("/{id}/applicants", oppH.HandleApplicants)
				r.Get("/{id}/hours", oppH.HandleHours)
			})
			r.With(requireAuth, role(volunteer)).Post("/{id}/apply", oppH.HandleApply)
		})

		r.Route("/volunteer-applications", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(role(admin, ngo)).Get("/", appH.HandleList)
			r.With(role(volunteer)).Get("/my-applications", appH.HandleMine)
			r.Group(func(r chi.Router) {
				r.Use(role(ngo))
				r.Put("/{id}/status", appH.HandleSetStatus)
				r.Put("/{id}/approve", appH.HandleApprove)
				r.Put("/{id}/reject", appH.HandleReject)
				r.Put("/{id}/assign-hours", appH.HandleAssignHours)
				r.Put("/{id}/update-hours", appH.HandleUpdateHours)
			})
			r.Get("/{id}/hours", appH.HandleHours)
			r.With(role(volunteer, admin)).Delete("/{id}", appH.HandleDelete)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests,
// flushes queued notifications and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()
	if s.dispatcher != nil {
		defer s.dispatcher.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.db.Dialect()),
			slog.String("storage", s.config.StorageBackend),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
