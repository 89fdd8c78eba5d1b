package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
	"github.com/sakif/volunteer-connect/internal/storage"
)

// UserService manages the account fields every role shares: e-mail,
// password and profile picture.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	files     FileStore
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, files FileStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, files: files, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

type emailInput struct {
	NewEmail string `json:"newEmail" validate:"required,email,max=254"`
}

func (s *UserService) UpdateEmail(ctx context.Context, id, newEmail string) (*model.User, error) {
	in := emailInput{NewEmail: strings.ToLower(strings.TrimSpace(newEmail))}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Email == in.NewEmail {
		return u, nil
	}
	if other, err := s.users.GetByEmail(ctx, in.NewEmail); err == nil && other.ID != id {
		return nil, apperror.Conflict("email is already registered")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	if err := s.users.UpdateEmail(ctx, id, in.NewEmail); err != nil {
		return nil, fmt.Errorf("updating email of user %s: %w", id, err)
	}
	s.logger.Info("email updated", slog.String("userID", id))
	return s.users.GetByID(ctx, id)
}

type passwordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdatePassword replaces the password after checking the old one.
func (s *UserService) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if err := validateStruct(passwordInput{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.passwords.Verify(u.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Unauthorized("old password is incorrect")
		}
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("updating password of user %s: %w", id, err)
	}
	s.logger.Info("password updated", slog.String("userID", id))
	return nil
}

// UploadProfilePicture stores r as the user's picture and removes the one
// it replaces.
func (s *UserService) UploadProfilePicture(ctx context.Context, id string, r io.Reader) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref, err := s.files.Save(ctx, storage.KindProfilePicture, id, r)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfilePicture(ctx, id, ref); err != nil {
		discard(ctx, s.files, s.logger, ref)
		return nil, fmt.Errorf("saving profile picture of user %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, u.ProfilePicture)

	u.ProfilePicture = ref
	return u, nil
}

func (s *UserService) DeleteProfilePicture(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.ProfilePicture == "" {
		return apperror.ValidationFailed("profilePicture", "no profile picture to delete")
	}
	if err := s.users.UpdateProfilePicture(ctx, id, ""); err != nil {
		return fmt.Errorf("clearing profile picture of user %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, u.ProfilePicture)
	return nil
}

// discard removes a stored file that is no longer referenced. Failures
// only leave an orphan behind, so they are logged and ignored.
func discard(ctx context.Context, files FileStore, logger *slog.Logger, ref string) {
	if ref == "" {
		return
	}
	if err := files.Remove(ctx, ref); err != nil {
		logger.Error("failed to remove file",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
		)
	}
}
