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

// AttendeeService handles RSVPs. A volunteer holds at most one RSVP per
// event; the unique index turns a second one into a conflict.
type AttendeeService struct {
	attendees repository.AttendeeRepository
	events    repository.EventRepository
	ngos      repository.NGORepository
	logger    *slog.Logger
}

func NewAttendeeService(
	attendees repository.AttendeeRepository,
	events repository.EventRepository,
	ngos repository.NGORepository,
	logger *slog.Logger,
) *AttendeeService {
	return &AttendeeService{attendees: attendees, events: events, ngos: ngos, logger: logger}
}

// RSVP marks the volunteer as attending eventID.
func (s *AttendeeService) RSVP(ctx context.Context, p auth.Principal, eventID string) (*model.EventAttendee, error) {
	if !p.Is(model.RoleVolunteer) {
		return nil, apperror.Forbidden("only volunteers can RSVP")
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.NGOStatus != model.NGOApproved {
		return nil, apperror.NotFound("event", eventID)
	}

	a := &model.EventAttendee{
		EventID:     eventID,
		VolunteerID: p.ID,
		Status:      model.Attending,
	}
	if err := s.attendees.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating RSVP: %w", err)
	}
	s.logger.Info("RSVP created",
		slog.String("eventID", eventID),
		slog.String("volunteerID", p.ID),
	)
	return a, nil
}

// Cancel withdraws the caller's RSVP to eventID.
func (s *AttendeeService) Cancel(ctx context.Context, p auth.Principal, eventID string) error {
	a, err := s.attendees.GetByEventAndVolunteer(ctx, eventID, p.ID)
	if err != nil {
		return err
	}
	if err := s.attendees.Delete(ctx, a.ID); err != nil {
		return fmt.Errorf("deleting RSVP %s: %w", a.ID, err)
	}
	s.logger.Info("RSVP cancelled",
		slog.String("eventID", eventID),
		slog.String("volunteerID", p.ID),
	)
	return nil
}

// ForEvent lists the attendees of an event to its NGO (or an admin).
func (s *AttendeeService) ForEvent(ctx context.Context, p auth.Principal, eventID string) ([]model.EventAttendee, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, e.NGOID, true, "event"); err != nil {
		return nil, err
	}
	attendees, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing attendees of event %s: %w", eventID, err)
	}
	return attendees, nil
}

// Remove deletes an RSVP on behalf of the NGO running the event.
func (s *AttendeeService) Remove(ctx context.Context, p auth.Principal, attendeeID string) error {
	a, err := s.attendees.GetByID(ctx, attendeeID)
	if err != nil {
		return err
	}
	e, err := s.events.GetByID(ctx, a.EventID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(ctx, s.ngos, p, e.NGOID, true, "event"); err != nil {
		return err
	}
	if err := s.attendees.Delete(ctx, attendeeID); err != nil {
		return fmt.Errorf("deleting RSVP %s: %w", attendeeID, err)
	}
	s.logger.Info("attendee removed",
		slog.String("eventID", a.EventID),
		slog.String("volunteerID", a.VolunteerID),
		slog.String("by", p.ID),
	)
	return nil
}

// Mine lists the caller's RSVPs with event titles.
func (s *AttendeeService) Mine(ctx context.Context, p auth.Principal) ([]model.EventAttendee, error) {
	attendees, err := s.attendees.ListByVolunteer(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listing RSVPs of volunteer %s: %w", p.ID, err)
	}
	return attendees, nil
}
