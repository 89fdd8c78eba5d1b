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

var _ repository.ApplicationRepository = (*ApplicationStore)(nil)

var applicationColumns = []string{
	"id", "opportunity_id", "volunteer_id", "status", "hours_worked", "created_at", "updated_at",
}

type ApplicationStore struct {
	db *DB
}

func (s *ApplicationStore) selectApplication() sq.SelectBuilder {
	cols := as("a", applicationColumns...)
	cols = append(cols, "o.title AS opportunity_title", "o.ngo_id AS ngo_id")
	cols = append(cols, as("u", "username", "email")...)
	return s.db.sb.
		Select(cols...).
		From("volunteer_applications a").
		Join("volunteer_opportunities o ON o.id = a.opportunity_id").
		Join("users u ON u.id = a.volunteer_id")
}

// Create records a pending application. A second application by the same
// volunteer to the same opportunity fails with a conflict.
func (s *ApplicationStore) Create(ctx context.Context, a *model.Application) error {
	t := now()
	a.ID = xid.New().String()
	a.Status = model.ApplicationPending
	a.HoursWorked = 0
	a.CreatedAt = t
	a.UpdatedAt = t

	_, err := exec(ctx, s.db.conn, s.db.sb.
		Insert("volunteer_applications").
		Columns(applicationColumns...).
		Values(a.ID, a.OpportunityID, a.VolunteerID, string(a.Status), a.HoursWorked, a.CreatedAt, a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: inserting application: %w",
			translate(err, "you have already applied for this opportunity"))
	}
	return nil
}

func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*model.Application, error) {
	return s.getByID(ctx, s.db.conn, id)
}

func (s *ApplicationStore) getByID(ctx context.Context, q querier, id string) (*model.Application, error) {
	var a model.Application
	err := get(ctx, q, &a, s.selectApplication().Where(sq.Eq{"a.id": id}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("application", id)
		}
		return nil, fmt.Errorf("sqlstore: fetching application %s: %w", id, err)
	}
	return &a, nil
}

func (s *ApplicationStore) List(ctx context.Context, f repository.ApplicationFilter) ([]model.Application, error) {
	where := sq.Eq{}
	if f.OpportunityID != "" {
		where["a.opportunity_id"] = f.OpportunityID
	}
	if f.VolunteerID != "" {
		where["a.volunteer_id"] = f.VolunteerID
	}
	if f.NGOID != "" {
		where["o.ngo_id"] = f.NGOID
	}

	out := []model.Application{}
	err := selectAll(ctx, s.db.conn, &out, s.selectApplication().
		Where(where).
		OrderBy("a.created_at DESC", "a.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing applications: %w", err)
	}
	return out, nil
}

// Applicants joins each application to the applicant's volunteer profile.
func (s *ApplicationStore) Applicants(ctx context.Context, opportunityID string) ([]model.Applicant, error) {
	out := []model.Applicant{}
	err := selectAll(ctx, s.db.conn, &out, s.db.sb.
		Select(
			"a.id AS application_id",
			"a.volunteer_id AS volunteer_id",
			"u.username AS username",
			"u.email AS email",
			"v.skills AS skills",
			"v.availability AS availability",
			"v.resume_pdf AS resume_pdf",
			"a.status AS status",
			"a.hours_worked AS hours_worked",
		).
		From("volunteer_applications a").
		Join("users u ON u.id = a.volunteer_id").
		Join("volunteer_profiles v ON v.user_id = a.volunteer_id").
		Where(sq.Eq{"a.opportunity_id": opportunityID}).
		OrderBy("a.created_at ASC", "a.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing applicants: %w", err)
	}
	return out, nil
}

func (s *ApplicationStore) SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := s.getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := exec(ctx, tx, s.db.sb.
			Update("volunteer_applications").
			Set("status", string(status)).
			Set("updated_at", now()).
			Where(sq.Eq{"id": id})); err != nil {
			return fmt.Errorf("sqlstore: setting application %s status: %w", id, err)
		}

		return s.db.recalcHours(ctx, tx, a.VolunteerID)
	})
}

var (
	errHoursNotApproved = apperror.ValidationFailed("hours", "hours can only be recorded for approved applications")
	errHoursAssigned    = apperror.Conflict("hours have already been assigned for this application; use update-hours to change them")
)

func (s *ApplicationStore) SetHours(ctx context.Context, id string, hours int, onlyIfUnset bool) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := s.getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.Status != model.ApplicationApproved {
			return errHoursNotApproved
		}
		if onlyIfUnset && a.HoursWorked > 0 {
			return errHoursAssigned
		}

		// The guards are repeated in the WHERE so a concurrent writer that
		// slipped in after the read above cannot be overwritten.
		where := sq.Eq{"id": id, "status": string(model.ApplicationApproved)}
		if onlyIfUnset {
			where["hours_worked"] = 0
		}
		n, err := exec(ctx, tx, s.db.sb.
			Update("volunteer_applications").
			Set("hours_worked", hours).
			Set("updated_at", now()).
			Where(where))
		if err != nil {
			return fmt.Errorf("sqlstore: setting hours on application %s: %w", id, err)
		}
		if n == 0 {
			if onlyIfUnset {
				return errHoursAssigned
			}
			return errHoursNotApproved
		}

		return s.db.recalcHours(ctx, tx, a.VolunteerID)
	})
}

func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := s.getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := exec(ctx, tx, s.db.sb.Delete("volunteer_applications").Where(sq.Eq{"id": id})); err != nil {
			return fmt.Errorf("sqlstore: deleting application %s: %w", id, err)
		}

		return s.db.recalcHours(ctx, tx, a.VolunteerID)
	})
}

// recalcHours sets each volunteer's total_hours to the sum of hours on
// their approved applications. It must run in the transaction that changed
// those applications.
func (db *DB) recalcHours(ctx context.Context, q querier, volunteerIDs ...string) error {
	for _, vid := range volunteerIDs {
		_, err := exec(ctx, q, db.sb.
			Update("volunteer_profiles").
			Set("total_hours", sq.Expr(
				"(SELECT COALESCE(SUM(hours_worked), 0) FROM volunteer_applications WHERE volunteer_id = ? AND status = ?)",
				vid, string(model.ApplicationApproved),
			)).
			Set("updated_at", now()).
			Where(sq.Eq{"user_id": vid}))
		if err != nil {
			return fmt.Errorf("sqlstore: recalculating hours for %s: %w", vid, err)
		}
	}
	return nil
}
