package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

var (
	_ repository.NGORepository       = (*NGOStore)(nil)
	_ repository.VolunteerRepository = (*VolunteerStore)(nil)
)

var ngoColumns = []string{
	"id", "user_id", "name", "description", "status", "created_at", "updated_at",
}

var volunteerColumns = []string{
	"id", "user_id", "skills", "availability", "total_hours", "resume_pdf", "created_at", "updated_at",
}

type NGOStore struct {
	db *DB
}

func (s *NGOStore) selectNGO() sq.SelectBuilder {
	return s.db.sb.
		Select(append(as("n", ngoColumns...), as("u", "username", "email")...)...).
		From("ngo_profiles n").
		Join("users u ON u.id = n.user_id")
}

func (s *NGOStore) GetByID(ctx context.Context, id string) (*model.NGOProfile, error) {
	var p model.NGOProfile
	err := get(ctx, s.db.conn, &p, s.selectNGO().Where(sq.Eq{"n.id": id}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("NGO", id)
		}
		return nil, fmt.Errorf("sqlstore: fetching ngo %s: %w", id, err)
	}
	return &p, nil
}

func (s *NGOStore) GetByUserID(ctx context.Context, userID string) (*model.NGOProfile, error) {
	var p model.NGOProfile
	err := get(ctx, s.db.conn, &p, s.selectNGO().Where(sq.Eq{"n.user_id": userID}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFoundMsg("NGO profile not found")
		}
		return nil, fmt.Errorf("sqlstore: fetching ngo for user %s: %w", userID, err)
	}
	return &p, nil
}

func (s *NGOStore) List(ctx context.Context, status model.NGOStatus) ([]model.NGOProfile, error) {
	q := s.selectNGO().OrderBy("n.name ASC")
	if status != "" {
		q = q.Where(sq.Eq{"n.status": string(status)})
	}

	ngos := []model.NGOProfile{}
	if err := selectAll(ctx, s.db.conn, &ngos, q); err != nil {
		return nil, fmt.Errorf("sqlstore: listing ngos: %w", err)
	}
	return ngos, nil
}

// Update writes name and description.
func (s *NGOStore) Update(ctx context.Context, p *model.NGOProfile) error {
	p.UpdatedAt = now()
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("ngo_profiles").
		Set("name", p.Name).
		Set("description", p.Description).
		Set("updated_at", p.UpdatedAt).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating ngo %s: %w", p.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("NGO", p.ID)
	}
	return nil
}

func (s *NGOStore) SetStatus(ctx context.Context, id string, status model.NGOStatus) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("ngo_profiles").
		Set("status", string(status)).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: setting ngo %s status: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("NGO", id)
	}
	return nil
}

func (s *NGOStore) MediaRefs(ctx context.Context, id string) ([]string, error) {
	posters := s.db.sb.
		Select("poster_image AS ref").
		From("events").
		Where(sq.And{sq.Eq{"ngo_id": id}, sq.NotEq{"poster_image": ""}})
	images := s.db.sb.
		Select("image AS ref").
		From("volunteer_opportunities").
		Where(sq.And{sq.Eq{"ngo_id": id}, sq.NotEq{"image": ""}})

	var refs []string
	for _, q := range []sq.SelectBuilder{posters, images} {
		var batch []string
		if err := selectAll(ctx, s.db.conn, &batch, q); err != nil {
			return nil, fmt.Errorf("sqlstore: listing media of ngo %s: %w", id, err)
		}
		refs = append(refs, batch...)
	}
	return refs, nil
}

type VolunteerStore struct {
	db *DB
}

func (s *VolunteerStore) selectVolunteer() sq.SelectBuilder {
	return s.db.sb.
		Select(append(as("v", volunteerColumns...), as("u", "username", "email")...)...).
		From("volunteer_profiles v").
		Join("users u ON u.id = v.user_id")
}

func (s *VolunteerStore) GetByUserID(ctx context.Context, userID string) (*model.VolunteerProfile, error) {
	var p model.VolunteerProfile
	err := get(ctx, s.db.conn, &p, s.selectVolunteer().Where(sq.Eq{"v.user_id": userID}))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFoundMsg("volunteer profile not found")
		}
		return nil, fmt.Errorf("sqlstore: fetching volunteer %s: %w", userID, err)
	}
	return &p, nil
}

func (s *VolunteerStore) List(ctx context.Context) ([]model.VolunteerProfile, error) {
	vols := []model.VolunteerProfile{}
	if err := selectAll(ctx, s.db.conn, &vols, s.selectVolunteer().OrderBy("u.username ASC")); err != nil {
		return nil, fmt.Errorf("sqlstore: listing volunteers: %w", err)
	}
	return vols, nil
}

// Update writes skills and availability. TotalHours is derived and never
// written here.
func (s *VolunteerStore) Update(ctx context.Context, p *model.VolunteerProfile) error {
	p.UpdatedAt = now()
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("volunteer_profiles").
		Set("skills", p.Skills).
		Set("availability", p.Availability).
		Set("updated_at", p.UpdatedAt).
		Where(sq.Eq{"user_id": p.UserID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating volunteer %s: %w", p.UserID, err)
	}
	if n == 0 {
		return apperror.NotFoundMsg("volunteer profile not found")
	}
	return nil
}

func (s *VolunteerStore) SetResume(ctx context.Context, userID, ref string) error {
	n, err := exec(ctx, s.db.conn, s.db.sb.
		Update("volunteer_profiles").
		Set("resume_pdf", ref).
		Set("updated_at", now()).
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return fmt.Errorf("sqlstore: setting resume for %s: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFoundMsg("volunteer profile not found")
	}
	return nil
}
