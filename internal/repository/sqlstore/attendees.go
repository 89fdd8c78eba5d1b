package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

var _ repository.AttendeeRepository = (*AttendeeStore)(nil)

var attendeeColumns = []string{
	"id", "event_id", "volunteer_id", "status", "created_at", "updated_at",
}

type AttendeeStore struct {
	db *DB
}

func (s *AttendeeStore) selectAttendee() sq.SelectBuilder {
	cols := as("a", attendeeColumns...)
	cols = append(cols, as("u", "username", "email")...)
	cols = append(cols, "e.title AS event_title")
	return s.db.sb.
		Select(cols...).
		From("event_attendees a").
		Join("users u ON u.id = a.volunteer_id").
		Join("events e ON e.id = a.event_id")
}

// Create records an RSVP. A second RSVP for the same event and volunteer
// fails with a conflict.
func (s *AttendeeStore) Create(ctx context.Context, a *model.EventAttendee) error {
	t := now()
	a.ID = xid.New().String()
	if a.Status == "" {
		a.Status = model.Attending
	}
	a.CreatedAt = t
	a.UpdatedAt = t

	_, err := exec(ctx, s.db.conn, s.db.sb.
		Insert("event_attendees").
		Columns(attendeeColumns...).
		Values(a.ID, a.EventID, a.VolunteerID, string(a.Status), a.CreatedAt, a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: inserting rsvp: %w", translate(err, "you have already RSVP'd for this event"))
	}
	return nil
}

func (s *AttendeeStore) GetByID(ctx context.Context, id string) (*model.EventAttendee, error) {
	var a model.EventAttendee
	err := get(ctx, s.db.conn, &a, s.selectAttendee().Where(sq.Eq{"a.id": id}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("attendee", id)
		}
		return nil, fmt.Errorf("sqlstore: fetching attendee %s: %w", id, err)
	}
	return &a, nil
}

func (s *AttendeeStore) GetByEventAndVolunteer(ctx context.Context, eventID, volunteerID string) (*model.EventAttendee, error) {
	var a model.EventAttendee
	err := get(ctx, s.db.conn, &a, s.selectAttendee().
		Where(sq.Eq{"a.event_id": eventID, "a.volunteer_id": volunteerID}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFoundMsg("you have not RSVP'd for this event")
		}
		return nil, fmt.Errorf("sqlstore: fetching rsvp: %w", err)
	}
	return &a, nil
}

func (s *AttendeeStore) ListByEvent(ctx context.Context, eventID string) ([]model.EventAttendee, error) {
	return s.list(ctx, sq.Eq{"a.event_id": eventID}, "u.username ASC")
}

func (s *AttendeeStore) ListByVolunteer(ctx context.Context, volunteerID string) ([]model.EventAttendee, error) {
	return s.list(ctx, sq.Eq{"a.volunteer_id": volunteerID}, "e.date ASC")
}

func (s *AttendeeStore) list(ctx context.Context, where sq.Eq, order string) ([]model.EventAttendee, error) {
	out := []model.EventAttendee{}
	if err := selectAll(ctx, s.db.conn, &out, s.selectAttendee().Where(where).OrderBy(order)); err != nil {
		return nil, fmt.Errorf("sqlstore: listing attendees: %w", err)
	}
	return out, nil
}

func (s *AttendeeStore) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.Delete("event_attendees").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting attendee %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("attendee", id)
	}
	return nil
}
