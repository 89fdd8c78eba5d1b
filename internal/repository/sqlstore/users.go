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

var _ repository.UserRepository = (*UserStore)(nil)

var userColumns = []string{
	"id", "username", "email", "password_hash", "role", "profile_picture", "created_at", "updated_at",
}

var userSorts = map[string]string{
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

type UserStore struct {
	db *DB
}

func (s *UserStore) CreateWithProfile(ctx context.Context, u *model.User, ngo *model.NGOProfile, vol *model.VolunteerProfile) error {
	t := now()
	u.ID = xid.New().String()
	u.CreatedAt = t
	u.UpdatedAt = t

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := exec(ctx, tx, s.db.sb.
			Insert("users").
			Columns(userColumns...).
			Values(u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.ProfilePicture, u.CreatedAt, u.UpdatedAt))
		if err != nil {
			return fmt.Errorf("sqlstore: inserting user: %w",
				translate(err, "username or email is already registered"))
		}

		if ngo != nil {
			ngo.ID = xid.New().String()
			ngo.UserID = u.ID
			if ngo.Status == "" {
				ngo.Status = model.NGOPending
			}
			ngo.CreatedAt = t
			ngo.UpdatedAt = t
			_, err := exec(ctx, tx, s.db.sb.
				Insert("ngo_profiles").
				Columns(ngoColumns...).
				Values(ngo.ID, ngo.UserID, ngo.Name, ngo.Description, string(ngo.Status), ngo.CreatedAt, ngo.UpdatedAt))
			if err != nil {
				return fmt.Errorf("sqlstore: inserting ngo profile: %w", translate(err, "NGO profile already exists"))
			}
		}

		if vol != nil {
			vol.ID = xid.New().String()
			vol.UserID = u.ID
			vol.TotalHours = 0
			vol.CreatedAt = t
			vol.UpdatedAt = t
			_, err := exec(ctx, tx, s.db.sb.
				Insert("volunteer_profiles").
				Columns(volunteerColumns...).
				Values(vol.ID, vol.UserID, vol.Skills, vol.Availability, vol.TotalHours, vol.ResumePDF, vol.CreatedAt, vol.UpdatedAt))
			if err != nil {
				return fmt.Errorf("sqlstore: inserting volunteer profile: %w", translate(err, "volunteer profile already exists"))
			}
		}
		return nil
	})
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.getBy(ctx, sq.Eq{"id": id})
	if isNotFound(err) {
		return nil, apperror.NotFound("user", id)
	}
	return u, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.getBy(ctx, sq.Eq{"email": email})
	if isNotFound(err) {
		return nil, apperror.NotFoundMsg("user not found")
	}
	return u, err
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.getBy(ctx, sq.Eq{"username": username})
	if isNotFound(err) {
		return nil, apperror.NotFoundMsg("user not found")
	}
	return u, err
}

func (s *UserStore) getBy(ctx context.Context, where sq.Eq) (*model.User, error) {
	var u model.User
	err := get(ctx, s.db.conn, &u, s.db.sb.
		Select(userColumns...).
		From("users").
		Where(where).
		Limit(1))
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlstore: fetching user: %w", err)
	}
	return &u, nil
}

// List returns one page of users matching f and the total number of
// matches across all pages.
func (s *UserStore) List(ctx context.Context, f repository.UserFilter) ([]model.User, int, error) {
	where := sq.And{}
	if f.Search != "" {
		where = append(where, containsFold(f.Search, "username", "email"))
	}
	if f.Role != "" {
		where = append(where, sq.Eq{"role": string(f.Role)})
	}

	var total int
	if err := get(ctx, s.db.conn, &total, s.db.sb.
		Select("COUNT(*)").
		From("users").
		Where(where)); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: counting users: %w", err)
	}

	page := f.ListOptions.Normalize()
	users := []model.User{}
	err := selectAll(ctx, s.db.conn, &users, s.db.sb.
		Select(userColumns...).
		From("users").
		Where(where).
		OrderBy(orderBy(userSorts, f.Sort.By, f.Sort.Desc, "username")).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)))
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: listing users: %w", err)
	}

	return users, total, nil
}

func (s *UserStore) UpdateEmail(ctx context.Context, id, email string) error {
	return s.update(ctx, id, "email", email, "email is already registered")
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.update(ctx, id, "password_hash", passwordHash, "")
}

func (s *UserStore) UpdateProfilePicture(ctx context.Context, id, ref string) error {
	return s.update(ctx, id, "profile_picture", ref, "")
}

func (s *UserStore) update(ctx context.Context, id, column string, value any, conflictMsg string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("users").
		Set(column, value).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating user %s: %w", column, translate(err, conflictMsg))
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Delete removes the user. Profiles, RSVPs and applications cascade, and
// for an NGO so do its events and opportunities; volunteers who had
// approved hours on those opportunities get their totals recomputed.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var affected []string
		err := selectAll(ctx, tx, &affected, s.db.sb.
			Select("DISTINCT a.volunteer_id").
			From("volunteer_applications a").
			Join("volunteer_opportunities o ON o.id = a.opportunity_id").
			Join("ngo_profiles n ON n.id = o.ngo_id").
			Where(sq.Eq{"n.user_id": id, "a.status": string(model.ApplicationApproved)}))
		if err != nil {
			return fmt.Errorf("sqlstore: finding affected volunteers: %w", err)
		}

		n, err := exec(ctx, tx, s.db.sb.Delete("users").Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("sqlstore: deleting user: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("user", id)
		}

		return s.db.recalcHours(ctx, tx, affected...)
	})
}
