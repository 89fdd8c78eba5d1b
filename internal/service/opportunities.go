package service

import (
	"context"
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

// OpportunityService manages volunteer opportunities. Visibility follows
// the same rule as events.
type OpportunityService struct {
	opps   repository.OpportunityRepository
	ngos   repository.NGORepository
	files  FileStore
	logger *slog.Logger
}

func NewOpportunityService(opps repository.OpportunityRepository, ngos repository.NGORepository, files FileStore, logger *slog.Logger) *OpportunityService {
	return &OpportunityService{opps: opps, ngos: ngos, files: files, logger: logger}
}

type OpportunityInput struct {
	Title        string `json:"title"        validate:"required,max=200"`
	Description  string `json:"description"  validate:"required,max=5000"`
	Location     string `json:"location"     validate:"max=200"`
	Date         string `json:"date"         validate:"required"`
	Requirements string `json:"requirements" validate:"max=2000"`
}

type OpportunityUpdate struct {
	Title        *string `json:"title"        validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description"  validate:"omitempty,min=1,max=5000"`
	Location     *string `json:"location"     validate:"omitempty,max=200"`
	Date         *string `json:"date"         validate:"omitempty,min=1"`
	Requirements *string `json:"requirements" validate:"omitempty,max=2000"`
}

func (s *OpportunityService) List(ctx context.Context, q FeedQuery) ([]model.Opportunity, error) {
	f := q.filter()
	f.ApprovedOnly = true
	opps, err := s.opps.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities: %w", err)
	}
	return opps, nil
}

func (s *OpportunityService) Get(ctx context.Context, viewer *auth.Principal, id string) (*model.Opportunity, error) {
	o, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := visibleTo(ctx, s.ngos, viewer, o.NGOID, o.NGOStatus)
	if err != nil {
		return nil, fmt.Errorf("checking visibility of opportunity %s: %w", id, err)
	}
	if !ok {
		return nil, apperror.NotFound("opportunity", id)
	}
	return o, nil
}

func (s *OpportunityService) Mine(ctx context.Context, p auth.Principal, q FeedQuery) ([]model.Opportunity, error) {
	ngo, err := callerNGO(ctx, s.ngos, p)
	if err != nil {
		return nil, err
	}
	f := q.filter()
	f.NGOID = ngo.ID
	opps, err := s.opps.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities of NGO %s: %w", ngo.ID, err)
	}
	return opps, nil
}

func (s *OpportunityService) Create(ctx context.Context, p auth.Principal, in OpportunityInput) (*model.Opportunity, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Requirements = strings.TrimSpace(in.Requirements)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	ngo, err := callerNGO(ctx, s.ngos, p)
	if err != nil {
		return nil, err
	}

	o := &model.Opportunity{
		NGOID:        ngo.ID,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Date:         date,
		Requirements: in.Requirements,
	}
	if err := s.opps.Create(ctx, o); err != nil {
		s.logger.Error("failed to create opportunity",
			slog.String("ngoID", ngo.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating opportunity: %w", err)
	}

	s.logger.Info("opportunity created",
		slog.String("opportunityID", o.ID),
		slog.String("ngoID", ngo.ID),
	)
	return s.opps.GetByID(ctx, o.ID)
}

func (s *OpportunityService) Update(ctx context.Context, p auth.Principal, id string, in OpportunityUpdate) (*model.Opportunity, error) {
	trimPtr(in.Title)
	trimPtr(in.Description)
	trimPtr(in.Location)
	trimPtr(in.Date)
	trimPtr(in.Requirements)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	o, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, o.NGOID, false, "opportunity"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		o.Title = *in.Title
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Location != nil {
		o.Location = *in.Location
	}
	if in.Requirements != nil {
		o.Requirements = *in.Requirements
	}
	if in.Date != nil {
		if o.Date, err = parseDate(*in.Date); err != nil {
			return nil, err
		}
	}
	if err := s.opps.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("updating opportunity %s: %w", id, err)
	}
	return s.opps.GetByID(ctx, id)
}

// Delete removes the opportunity with its applications; hour totals of the
// affected volunteers are recomputed by the repository.
func (s *OpportunityService) Delete(ctx context.Context, p auth.Principal, id string) error {
	o, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(ctx, s.ngos, p, o.NGOID, true, "opportunity"); err != nil {
		return err
	}
	if err := s.opps.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting opportunity %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, o.Image)

	s.logger.Info("opportunity deleted",
		slog.String("opportunityID", id),
		slog.String("by", p.ID),
	)
	return nil
}

func (s *OpportunityService) UploadImage(ctx context.Context, p auth.Principal, id string, r io.Reader) (*model.Opportunity, error) {
	o, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, o.NGOID, false, "opportunity"); err != nil {
		return nil, err
	}

	ref, err := s.files.Save(ctx, storage.KindOpportunityImage, o.ID, r)
	if err != nil {
		return nil, err
	}
	if err := s.opps.SetImage(ctx, id, ref); err != nil {
		discard(ctx, s.files, s.logger, ref)
		return nil, fmt.Errorf("saving image of opportunity %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, o.Image)

	o.Image = ref
	return o, nil
}
