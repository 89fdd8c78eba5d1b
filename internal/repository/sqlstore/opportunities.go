package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

var _ repository.OpportunityRepository = (*OpportunityStore)(nil)

var opportunityColumns = []string{
	"id", "ngo_id", "title", "description", "location", "date", "requirements", "image", "created_at", "updated_at",
}

var opportunitySorts = map[string]string{
	"date":      "o.date",
	"title":     "o.title",
	"location":  "o.location",
	"createdAt": "o.created_at",
}

type OpportunityStore struct {
	db *DB
}

func (s *OpportunityStore) selectOpportunity() sq.SelectBuilder {
	return s.db.sb.
		Select(append(as("o", opportunityColumns...), "n.name AS ngo_name", "n.status AS ngo_status")...).
		From("volunteer_opportunities o").
		Join("ngo_profiles n ON n.id = o.ngo_id")
}

func (s *OpportunityStore) Create(ctx context.Context, o *model.Opportunity) error {
	t := now()
	o.ID = xid.New().String()
	o.Date = o.Date.UTC()
	o.CreatedAt = t
	o.UpdatedAt = t

	_, err := exec(ctx, s.db.conn, s.db.sb.
		Insert("volunteer_opportunities").
		Columns(opportunityColumns...).
		Values(o.ID, o.NGOID, o.Title, o.Description, o.Location, o.Date, o.Requirements, o.Image, o.CreatedAt, o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: inserting opportunity: %w", translate(err, "opportunity already exists"))
	}
	return nil
}

func (s *OpportunityStore) GetByID(ctx context.Context, id string) (*model.Opportunity, error) {
	var o model.Opportunity
	err := get(ctx, s.db.conn, &o, s.selectOpportunity().Where(sq.Eq{"o.id": id}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("opportunity", id)
		}
		return nil, fmt.Errorf("sqlstore: fetching opportunity %s: %w", id, err)
	}
	return &o, nil
}

func (s *OpportunityStore) List(ctx context.Context, f repository.FeedFilter) ([]model.Opportunity, error) {
	page := f.ListOptions.Normalize()

	out := []model.Opportunity{}
	err := selectAll(ctx, s.db.conn, &out, s.selectOpportunity().
		Where(feedWhere("o", f)).
		OrderBy(orderBy(opportunitySorts, f.Sort.By, f.Sort.Desc, "date"), "o.id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing opportunities: %w", err)
	}
	return out, nil
}

func (s *OpportunityStore) Update(ctx context.Context, o *model.Opportunity) error {
	o.Date = o.Date.UTC()
	o.UpdatedAt = now()
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("volunteer_opportunities").
		Set("title", o.Title).
		Set("description", o.Description).
		Set("location", o.Location).
		Set("date", o.Date).
		Set("requirements", o.Requirements).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"id": o.ID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating opportunity %s: %w", o.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("opportunity", o.ID)
	}
	return nil
}

func (s *OpportunityStore) SetImage(ctx context.Context, id, ref string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("volunteer_opportunities").
		Set("image", ref).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: setting image for opportunity %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("opportunity", id)
	}
	return nil
}

func (s *OpportunityStore) Delete(ctx context.Context, id string) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var affected []string
		err := selectAll(ctx, tx, &affected, s.db.sb.
			Select("DISTINCT volunteer_id").
			From("volunteer_applications").
			Where(sq.Eq{"opportunity_id": id, "status": string(model.ApplicationApproved)}))
		if err != nil {
			return fmt.Errorf("sqlstore: finding affected volunteers: %w", err)
		}

		n, err := exec(ctx, tx, s.db.sb.Delete("volunteer_opportunities").Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("sqlstore: deleting opportunity %s: %w", id, err)
		}
		if n == 0 {
			return apperror.NotFound("opportunity", id)
		}

		return s.db.recalcHours(ctx, tx, affected...)
	})
}
