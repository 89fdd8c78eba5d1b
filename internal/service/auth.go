package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

// AuthService registers accounts and issues tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (access + refresh JWTs)
type AuthService struct {
	users     repository.UserRepository
	ngos      repository.NGORepository
	vols      repository.VolunteerRepository
	passwords *auth.PasswordService
	access    *auth.TokenService
	refresh   *auth.TokenService
	// allowAdminSignup permits role=admin on the public register endpoint.
	allowAdminSignup bool
	logger           *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	ngos repository.NGORepository,
	vols repository.VolunteerRepository,
	passwords *auth.PasswordService,
	access, refresh *auth.TokenService,
	allowAdminSignup bool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:            users,
		ngos:             ngos,
		vols:             vols,
		passwords:        passwords,
		access:           access,
		refresh:          refresh,
		allowAdminSignup: allowAdminSignup,
		logger:           logger,
	}
}

// RegisterInput is the body of POST /api/auth/register. Name and
// Description belong to NGOs, Skills and Availability to volunteers.
type RegisterInput struct {
	Username     string `json:"username"     validate:"required,min=3,max=50"`
	Email        string `json:"email"        validate:"required,email,max=254"`
	Password     string `json:"password"     validate:"required,min=8,max=72"`
	Role         string `json:"role"         validate:"required"`
	Name         string `json:"name"         validate:"required_if=Role ngo,max=200"`
	Description  string `json:"description"  validate:"required_if=Role ngo,max=5000"`
	Skills       string `json:"skills"       validate:"max=2000"`
	Availability string `json:"availability" validate:"max=500"`
}

// AuthResult is what register and login return to the client.
type AuthResult struct {
	User         *model.Account `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken,omitempty"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Skills = strings.TrimSpace(in.Skills)
	in.Availability = strings.TrimSpace(in.Availability)
}

// Register creates a user with the profile matching its role and signs it
// in. New NGOs start out pending.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, apperror.ValidationFailed("role", "role must be one of: volunteer, ngo, admin")
	}
	if role == model.RoleAdmin && !s.allowAdminSignup {
		return nil, apperror.Forbidden("admin accounts cannot be self-registered")
	}

	acc, err := s.createAccount(ctx, in, role)
	if err != nil {
		return nil, err
	}
	return s.issue(acc)
}

// CreateAdmin creates an admin account regardless of the signup setting.
// It backs the create-admin command.
func (s *AuthService) CreateAdmin(ctx context.Context, username, email, password string) (*model.User, error) {
	in := RegisterInput{Username: username, Email: email, Password: password, Role: string(model.RoleAdmin)}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	acc, err := s.createAccount(ctx, in, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return acc.User, nil
}

func (s *AuthService) createAccount(ctx context.Context, in RegisterInput, role model.Role) (*model.Account, error) {
	if err := s.ensureFree(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	acc := &model.Account{User: u}
	switch role {
	case model.RoleNGO:
		acc.NGOProfile = &model.NGOProfile{Name: in.Name, Description: in.Description, Status: model.NGOPending}
	case model.RoleVolunteer:
		acc.VolunteerProfile = &model.VolunteerProfile{Skills: in.Skills, Availability: in.Availability}
	}

	if err := s.users.CreateWithProfile(ctx, u, acc.NGOProfile, acc.VolunteerProfile); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", u.Username),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", u.ID),
		slog.String("role", string(u.Role)),
	)
	return acc, nil
}

// ensureFree gives precise conflict messages before the insert; the unique
// indexes still catch races.
func (s *AuthService) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperror.Conflict("username is already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperror.Conflict("email is already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking email: %w", err)
	}
	return nil
}

// Login checks email and password. An unknown email is a not-found error,
// a wrong password an unauthorized one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMsg("user not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if err := s.passwords.Verify(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	acc, err := loadAccount(ctx, s.ngos, s.vols, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.String("userID", u.ID))
	return s.issue(acc)
}

// SignInWithEmail signs in the existing account registered under email.
// It backs GitHub sign-in, which never creates accounts.
func (s *AuthService) SignInWithEmail(ctx context.Context, email string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMsg("no account is registered with this e-mail address")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	acc, err := loadAccount(ctx, s.ngos, s.vols, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user authenticated via GitHub", slog.String("userID", u.ID))
	return s.issue(acc)
}

// Refresh trades a refresh token for a new access token carrying the
// user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", apperror.ValidationFailed("token", "refresh token is required")
	}
	claims, err := s.refresh.Validate(refreshToken)
	if err != nil {
		return "", apperror.Unauthorized("invalid or expired refresh token")
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("user no longer exists")
		}
		return "", fmt.Errorf("loading user %s: %w", claims.Subject, err)
	}
	tok, err := s.access.Generate(u.ID, u.Role)
	if err != nil {
		return "", fmt.Errorf("generating access token for user %s: %w", u.ID, err)
	}
	return tok, nil
}

// Account returns the user with its profile.
func (s *AuthService) Account(ctx context.Context, userID string) (*model.Account, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadAccount(ctx, s.ngos, s.vols, u)
}

// AccessTTL is the lifetime of access tokens, used for the cookie MaxAge.
func (s *AuthService) AccessTTL() int {
	return int(s.access.TTL().Seconds())
}

func (s *AuthService) issue(acc *model.Account) (*AuthResult, error) {
	access, err := s.access.Generate(acc.ID, acc.Role)
	if err != nil {
		return nil, fmt.Errorf("generating access token for user %s: %w", acc.ID, err)
	}
	refresh, err := s.refresh.Generate(acc.ID, acc.Role)
	if err != nil {
		return nil, fmt.Errorf("generating refresh token for user %s: %w", acc.ID, err)
	}
	return &AuthResult{User: acc, AccessToken: access, RefreshToken: refresh}, nil
}
