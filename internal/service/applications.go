package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/notify"
	"github.com/sakif/volunteer-connect/internal/repository"
)

// ApplicationService runs the application workflow: volunteers apply, the
// NGO approves or rejects, then records hours on approved applications.
//
// The repository keeps each volunteer's total hours equal to the sum over
// their approved applications, in the same transaction as every change.
type ApplicationService struct {
	apps     repository.ApplicationRepository
	opps     repository.OpportunityRepository
	ngos     repository.NGORepository
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewApplicationService(
	apps repository.ApplicationRepository,
	opps repository.OpportunityRepository,
	ngos repository.NGORepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{apps: apps, opps: opps, ngos: ngos, notifier: notifier, logger: logger}
}

// Apply creates a pending application by the calling volunteer.
func (s *ApplicationService) Apply(ctx context.Context, p auth.Principal, opportunityID string) (*model.Application, error) {
	if !p.Is(model.RoleVolunteer) {
		return nil, apperror.Forbidden("only volunteers can apply")
	}
	o, err := s.opps.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if o.NGOStatus != model.NGOApproved {
		return nil, apperror.NotFound("opportunity", opportunityID)
	}

	a := &model.Application{OpportunityID: opportunityID, VolunteerID: p.ID}
	if err := s.apps.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	s.logger.Info("application submitted",
		slog.String("applicationID", a.ID),
		slog.String("opportunityID", opportunityID),
		slog.String("volunteerID", p.ID),
	)
	return a, nil
}

// Applicants lists who applied to an opportunity, for its NGO.
func (s *ApplicationService) Applicants(ctx context.Context, p auth.Principal, opportunityID string) ([]model.Applicant, error) {
	o, err := s.opps.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, o.NGOID, true, "opportunity"); err != nil {
		return nil, err
	}
	applicants, err := s.apps.Applicants(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("listing applicants of opportunity %s: %w", opportunityID, err)
	}
	return applicants, nil
}

// HoursReport lists every application to an opportunity with its hours.
// The total counts approved applications only.
func (s *ApplicationService) HoursReport(ctx context.Context, p auth.Principal, opportunityID string) (*model.HoursReport, error) {
	o, err := s.opps.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, o.NGOID, true, "opportunity"); err != nil {
		return nil, err
	}
	apps, err := s.apps.List(ctx, repository.ApplicationFilter{OpportunityID: opportunityID})
	if err != nil {
		return nil, fmt.Errorf("listing applications of opportunity %s: %w", opportunityID, err)
	}

	report := &model.HoursReport{OpportunityID: opportunityID, Applications: apps}
	for _, a := range apps {
		if a.Status == model.ApplicationApproved {
			report.TotalHours += a.HoursWorked
		}
	}
	return report, nil
}

// List returns every application to an admin and the applications to
// their own opportunities to an NGO.
func (s *ApplicationService) List(ctx context.Context, p auth.Principal) ([]model.Application, error) {
	var f repository.ApplicationFilter
	if !p.Is(model.RoleAdmin) {
		ngo, err := callerNGO(ctx, s.ngos, p)
		if err != nil {
			return nil, err
		}
		f.NGOID = ngo.ID
	}
	apps, err := s.apps.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationService) Mine(ctx context.Context, p auth.Principal) ([]model.Application, error) {
	apps, err := s.apps.List(ctx, repository.ApplicationFilter{VolunteerID: p.ID})
	if err != nil {
		return nil, fmt.Errorf("listing applications of volunteer %s: %w", p.ID, err)
	}
	return apps, nil
}

// SetStatus approves or rejects an application and tells the volunteer.
func (s *ApplicationService) SetStatus(ctx context.Context, p auth.Principal, id, status string) (*model.Application, error) {
	st := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != model.ApplicationApproved && st != model.ApplicationRejected {
		return nil, apperror.ValidationFailed("status", "status must be one of: approved, rejected")
	}

	a, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.apps.SetStatus(ctx, id, st); err != nil {
		return nil, fmt.Errorf("setting status of application %s: %w", id, err)
	}
	updated, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("application reviewed",
		slog.String("applicationID", id),
		slog.String("status", string(st)),
		slog.String("by", p.ID),
	)
	if a.Status != st && updated.Email != "" {
		s.notifier.Notify(ctx, notify.ApplicationStatusMessage(updated.Email, updated.Username, updated.OpportunityTitle, st))
	}
	return updated, nil
}

type hoursInput struct {
	Hours int `json:"hours" validate:"gte=0,lte=10000"`
}

// AssignHours records hours on an approved application that has none yet.
func (s *ApplicationService) AssignHours(ctx context.Context, p auth.Principal, id string, hours int) (*model.Application, error) {
	if hours <= 0 {
		return nil, apperror.ValidationFailed("hours", "hours must be greater than 0")
	}
	return s.setHours(ctx, p, id, hours, true)
}

// UpdateHours overwrites the hours of an approved application.
func (s *ApplicationService) UpdateHours(ctx context.Context, p auth.Principal, id string, hours int) (*model.Application, error) {
	return s.setHours(ctx, p, id, hours, false)
}

func (s *ApplicationService) setHours(ctx context.Context, p auth.Principal, id string, hours int, onlyIfUnset bool) (*model.Application, error) {
	if err := validateStruct(hoursInput{Hours: hours}); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}
	if err := s.apps.SetHours(ctx, id, hours, onlyIfUnset); err != nil {
		return nil, fmt.Errorf("setting hours of application %s: %w", id, err)
	}
	s.logger.Info("hours recorded",
		slog.String("applicationID", id),
		slog.Int("hours", hours),
		slog.String("by", p.ID),
	)
	return s.apps.GetByID(ctx, id)
}

// Hours returns one application's hours to an admin, the owning NGO or the
// volunteer who applied.
func (s *ApplicationService) Hours(ctx context.Context, p auth.Principal, id string) (*model.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Is(model.RoleVolunteer) {
		if a.VolunteerID != p.ID {
			return nil, apperror.Forbidden("you can only view your own applications")
		}
		return a, nil
	}
	if err := authorizeOwner(ctx, s.ngos, p, a.NGOID, true, "opportunity"); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete withdraws an application. Only the applicant and admins may.
func (s *ApplicationService) Delete(ctx context.Context, p auth.Principal, id string) error {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Is(model.RoleAdmin) && a.VolunteerID != p.ID {
		return apperror.Forbidden("you can only withdraw your own applications")
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	s.logger.Info("application deleted",
		slog.String("applicationID", id),
		slog.String("by", p.ID),
	)
	return nil
}

// owned loads application id and checks p is the NGO behind it.
func (s *ApplicationService) owned(ctx context.Context, p auth.Principal, id string) (*model.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, a.NGOID, false, "opportunity"); err != nil {
		return nil, err
	}
	return a, nil
}
