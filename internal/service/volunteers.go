package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
	"github.com/sakif/volunteer-connect/internal/storage"
)

type VolunteerService struct {
	vols   repository.VolunteerRepository
	files  FileStore
	logger *slog.Logger
}

func NewVolunteerService(vols repository.VolunteerRepository, files FileStore, logger *slog.Logger) *VolunteerService {
	return &VolunteerService{vols: vols, files: files, logger: logger}
}

func (s *VolunteerService) List(ctx context.Context) ([]model.VolunteerProfile, error) {
	vols, err := s.vols.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing volunteers: %w", err)
	}
	return vols, nil
}

// Get returns the volunteer profile of the given user.
func (s *VolunteerService) Get(ctx context.Context, userID string) (*model.VolunteerProfile, error) {
	return s.vols.GetByUserID(ctx, userID)
}

// VolunteerUpdate is a partial update; nil fields are left alone.
type VolunteerUpdate struct {
	Skills       *string `json:"skills"       validate:"omitempty,max=2000"`
	Availability *string `json:"availability" validate:"omitempty,max=500"`
}

// UpdateProfile applies in and, when resume is non-nil, replaces the
// resume as well.
func (s *VolunteerService) UpdateProfile(ctx context.Context, userID string, in VolunteerUpdate, resume io.Reader) (*model.VolunteerProfile, error) {
	trimPtr(in.Skills)
	trimPtr(in.Availability)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	p, err := s.vols.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Skills != nil {
		p.Skills = *in.Skills
	}
	if in.Availability != nil {
		p.Availability = *in.Availability
	}
	if err := s.vols.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("updating volunteer profile of user %s: %w", userID, err)
	}

	if resume != nil {
		return s.UploadResume(ctx, userID, resume)
	}
	return s.vols.GetByUserID(ctx, userID)
}

// UploadResume stores a PDF resume, replacing any previous one.
func (s *VolunteerService) UploadResume(ctx context.Context, userID string, r io.Reader) (*model.VolunteerProfile, error) {
	p, err := s.vols.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref, err := s.files.Save(ctx, storage.KindResume, userID, r)
	if err != nil {
		return nil, err
	}
	if err := s.vols.SetResume(ctx, userID, ref); err != nil {
		discard(ctx, s.files, s.logger, ref)
		return nil, fmt.Errorf("saving resume of user %s: %w", userID, err)
	}
	discard(ctx, s.files, s.logger, p.ResumePDF)

	s.logger.Info("resume uploaded", slog.String("userID", userID))
	p.ResumePDF = ref
	return p, nil
}

func (s *VolunteerService) DeleteResume(ctx context.Context, userID string) error {
	p, err := s.vols.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p.ResumePDF == "" {
		return apperror.ValidationFailed("resume", "no resume to delete")
	}
	if err := s.vols.SetResume(ctx, userID, ""); err != nil {
		return fmt.Errorf("clearing resume of user %s: %w", userID, err)
	}
	discard(ctx, s.files, s.logger, p.ResumePDF)
	return nil
}
