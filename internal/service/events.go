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

// EventService manages events. Events of NGOs that are not approved stay
// out of the public feed and are only visible to their NGO and admins.
type EventService struct {
	events repository.EventRepository
	ngos   repository.NGORepository
	files  FileStore
	logger *slog.Logger
}

func NewEventService(events repository.EventRepository, ngos repository.NGORepository, files FileStore, logger *slog.Logger) *EventService {
	return &EventService{events: events, ngos: ngos, files: files, logger: logger}
}

// EventInput is the body of POST /api/events.
type EventInput struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Location    string `json:"location"    validate:"max=200"`
	Date        string `json:"date"        validate:"required"`
}

// EventUpdate is a partial update; nil fields are left alone.
type EventUpdate struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1,max=5000"`
	Location    *string `json:"location"    validate:"omitempty,max=200"`
	Date        *string `json:"date"        validate:"omitempty,min=1"`
}

// List returns the public feed.
func (s *EventService) List(ctx context.Context, q FeedQuery) ([]model.Event, error) {
	f := q.filter()
	f.ApprovedOnly = true
	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Get returns the event if viewer (nil when anonymous) may see it.
func (s *EventService) Get(ctx context.Context, viewer *auth.Principal, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := visibleTo(ctx, s.ngos, viewer, e.NGOID, e.NGOStatus)
	if err != nil {
		return nil, fmt.Errorf("checking visibility of event %s: %w", id, err)
	}
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	return e, nil
}

// Mine lists the caller's own events whatever its approval status.
func (s *EventService) Mine(ctx context.Context, p auth.Principal, q FeedQuery) ([]model.Event, error) {
	ngo, err := callerNGO(ctx, s.ngos, p)
	if err != nil {
		return nil, err
	}
	f := q.filter()
	f.NGOID = ngo.ID
	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing events of NGO %s: %w", ngo.ID, err)
	}
	return events, nil
}

func (s *EventService) Create(ctx context.Context, p auth.Principal, in EventInput) (*model.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
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

	e := &model.Event{
		NGOID:       ngo.ID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Date:        date,
	}
	if err := s.events.Create(ctx, e); err != nil {
		s.logger.Error("failed to create event",
			slog.String("ngoID", ngo.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("eventID", e.ID),
		slog.String("ngoID", ngo.ID),
	)
	return s.events.GetByID(ctx, e.ID)
}

func (s *EventService) Update(ctx context.Context, p auth.Principal, id string, in EventUpdate) (*model.Event, error) {
	trimPtr(in.Title)
	trimPtr(in.Description)
	trimPtr(in.Location)
	trimPtr(in.Date)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, e.NGOID, false, "event"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.Date != nil {
		if e.Date, err = parseDate(*in.Date); err != nil {
			return nil, err
		}
	}
	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("updating event %s: %w", id, err)
	}
	return s.events.GetByID(ctx, id)
}

// Delete removes an event and its RSVPs. The owning NGO and admins may
// delete.
func (s *EventService) Delete(ctx context.Context, p auth.Principal, id string) error {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(ctx, s.ngos, p, e.NGOID, true, "event"); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, e.PosterImage)

	s.logger.Info("event deleted",
		slog.String("eventID", id),
		slog.String("by", p.ID),
	)
	return nil
}

// UploadPoster stores r as the event poster, replacing any previous one.
func (s *EventService) UploadPoster(ctx context.Context, p auth.Principal, id string, r io.Reader) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, s.ngos, p, e.NGOID, false, "event"); err != nil {
		return nil, err
	}

	ref, err := s.files.Save(ctx, storage.KindPoster, e.ID, r)
	if err != nil {
		return nil, err
	}
	if err := s.events.SetPoster(ctx, id, ref); err != nil {
		discard(ctx, s.files, s.logger, ref)
		return nil, fmt.Errorf("saving poster of event %s: %w", id, err)
	}
	discard(ctx, s.files, s.logger, e.PosterImage)

	e.PosterImage = ref
	return e, nil
}
