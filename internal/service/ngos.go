package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

type NGOService struct {
	ngos   repository.NGORepository
	users  repository.UserRepository
	files  FileStore
	logger *slog.Logger
}

func NewNGOService(ngos repository.NGORepository, users repository.UserRepository, files FileStore, logger *slog.Logger) *NGOService {
	return &NGOService{ngos: ngos, users: users, files: files, logger: logger}
}

// List returns every NGO profile regardless of status.
func (s *NGOService) List(ctx context.Context) ([]model.NGOProfile, error) {
	ngos, err := s.ngos.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing NGOs: %w", err)
	}
	return ngos, nil
}

func (s *NGOService) ListApproved(ctx context.Context) ([]model.NGOProfile, error) {
	ngos, err := s.ngos.List(ctx, model.NGOApproved)
	if err != nil {
		return nil, fmt.Errorf("listing approved NGOs: %w", err)
	}
	return ngos, nil
}

func (s *NGOService) Get(ctx context.Context, id string) (*model.NGOProfile, error) {
	return s.ngos.GetByID(ctx, id)
}

// Mine returns the caller's own NGO profile.
func (s *NGOService) Mine(ctx context.Context, p auth.Principal) (*model.NGOProfile, error) {
	return callerNGO(ctx, s.ngos, p)
}

// NGOUpdate is a partial update; nil fields are left alone.
type NGOUpdate struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1,max=5000"`
}

// Update edits the caller's own profile. The approval status is not
// editable here.
func (s *NGOService) Update(ctx context.Context, p auth.Principal, in NGOUpdate) (*model.NGOProfile, error) {
	trimPtr(in.Name)
	trimPtr(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	ngo, err := callerNGO(ctx, s.ngos, p)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		ngo.Name = *in.Name
	}
	if in.Description != nil {
		ngo.Description = *in.Description
	}
	if err := s.ngos.Update(ctx, ngo); err != nil {
		return nil, fmt.Errorf("updating NGO %s: %w", ngo.ID, err)
	}
	s.logger.Info("NGO profile updated", slog.String("ngoID", ngo.ID))
	return s.ngos.GetByID(ctx, ngo.ID)
}

// Delete removes an NGO together with its owning account, then removes the
// owner's picture and the media of the NGO's events and opportunities.
// NGOs may only delete themselves; admins may delete any NGO.
func (s *NGOService) Delete(ctx context.Context, p auth.Principal, id string) error {
	ngo, err := s.ngos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Is(model.RoleAdmin) && ngo.UserID != p.ID {
		return apperror.Forbidden("you can only delete your own NGO")
	}
	owner, err := s.users.GetByID(ctx, ngo.UserID)
	if err != nil {
		return fmt.Errorf("loading owner of NGO %s: %w", id, err)
	}
	media, err := s.ngos.MediaRefs(ctx, id)
	if err != nil {
		return fmt.Errorf("listing media of NGO %s: %w", id, err)
	}

	if err := s.users.Delete(ctx, ngo.UserID); err != nil {
		return fmt.Errorf("deleting NGO %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, owner.ProfilePicture)
	for _, ref := range media {
		discard(ctx, s.files, s.logger, ref)
	}

	s.logger.Info("NGO deleted",
		slog.String("ngoID", id),
		slog.String("by", p.ID),
	)
	return nil
}
