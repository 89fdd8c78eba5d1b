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

var _ repository.EventRepository = (*EventStore)(nil)

var eventColumns = []string{
	"id", "ngo_id", "title", "description", "location", "date", "poster_image", "created_at", "updated_at",
}

var eventSorts = map[string]string{
	"date":      "e.date",
	"title":     "e.title",
	"location":  "e.location",
	"createdAt": "e.created_at",
}

// feedWhere turns the shared feed filter into conditions on table t, which
// must be joined to ngo_profiles as n.
func feedWhere(t string, f repository.FeedFilter) sq.And {
	where := sq.And{}
	if f.Search != "" {
		where = append(where, containsFold(f.Search, t+".title", t+".description"))
	}
	if f.Location != "" {
		where = append(where, containsFold(f.Location, t+".location"))
	}
	if f.NGOID != "" {
		where = append(where, sq.Eq{t + ".ngo_id": f.NGOID})
	}
	if f.ApprovedOnly {
		where = append(where, sq.Eq{"n.status": string(model.NGOApproved)})
	}
	return where
}

type EventStore struct {
	db *DB
}

func (s *EventStore) selectEvent() sq.SelectBuilder {
	return s.db.sb.
		Select(append(as("e", eventColumns...), "n.name AS ngo_name", "n.status AS ngo_status")...).
		From("events e").
		Join("ngo_profiles n ON n.id = e.ngo_id")
}

func (s *EventStore) Create(ctx context.Context, e *model.Event) error {
	t := now()
	e.ID = xid.New().String()
	e.Date = e.Date.UTC()
	e.CreatedAt = t
	e.UpdatedAt = t

	_, err := exec(ctx, s.db.conn, s.db.sb.
		Insert("events").
		Columns(eventColumns...).
		Values(e.ID, e.NGOID, e.Title, e.Description, e.Location, e.Date, e.PosterImage, e.CreatedAt, e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: inserting event: %w", translate(err, "event already exists"))
	}
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := get(ctx, s.db.conn, &e, s.selectEvent().Where(sq.Eq{"e.id": id}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlstore: fetching event %s: %w", id, err)
	}
	return &e, nil
}

func (s *EventStore) List(ctx context.Context, f repository.FeedFilter) ([]model.Event, error) {
	page := f.ListOptions.Normalize()

	events := []model.Event{}
	err := selectAll(ctx, s.db.conn, &events, s.selectEvent().
		Where(feedWhere("e", f)).
		OrderBy(orderBy(eventSorts, f.Sort.By, f.Sort.Desc, "date"), "e.id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing events: %w", err)
	}
	return events, nil
}

// Update writes the editable fields. The poster is changed with SetPoster.
func (s *EventStore) Update(ctx context.Context, e *model.Event) error {
	e.Date = e.Date.UTC()
	e.UpdatedAt = now()
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("events").
		Set("title", e.Title).
		Set("description", e.Description).
		Set("location", e.Location).
		Set("date", e.Date).
		Set("updated_at", e.UpdatedAt).
		Where(sq.Eq{"id": e.ID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating event %s: %w", e.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("event", e.ID)
	}
	return nil
}

func (s *EventStore) SetPoster(ctx context.Context, id, ref string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("events").
		Set("poster_image", ref).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: setting poster for event %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("event", id)
	}
	return nil
}

// Delete removes the event; its RSVPs cascade.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.Delete("events").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting event %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("event", id)
	}
	return nil
}
