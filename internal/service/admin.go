package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/notify"
	"github.com/sakif/volunteer-connect/internal/repository"
)

// AdminService holds the operations of the admin dashboard: NGO review,
// user management and platform statistics.
type AdminService struct {
	users    repository.UserRepository
	ngos     repository.NGORepository
	vols     repository.VolunteerRepository
	stats    repository.StatsRepository
	files    FileStore
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewAdminService(
	users repository.UserRepository,
	ngos repository.NGORepository,
	vols repository.VolunteerRepository,
	stats repository.StatsRepository,
	files FileStore,
	notifier notify.Notifier,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		ngos:     ngos,
		vols:     vols,
		stats:    stats,
		files:    files,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *AdminService) ApproveNGO(ctx context.Context, id string) (*model.NGOProfile, error) {
	return s.setNGOStatus(ctx, id, model.NGOApproved)
}

func (s *AdminService) RejectNGO(ctx context.Context, id string) (*model.NGOProfile, error) {
	return s.setNGOStatus(ctx, id, model.NGORejected)
}

// setNGOStatus records the decision and e-mails the NGO owner. Repeating
// the current decision is a no-op for the owner's inbox.
func (s *AdminService) setNGOStatus(ctx context.Context, id string, status model.NGOStatus) (*model.NGOProfile, error) {
	prev, err := s.ngos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ngos.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("setting status of NGO %s: %w", id, err)
	}
	ngo, err := s.ngos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("NGO reviewed",
		slog.String("ngoID", id),
		slog.String("status", string(status)),
		slog.Bool("changed", prev.Status != status),
	)
	if prev.Status != status && ngo.Email != "" {
		s.notifier.Notify(ctx, notify.NGOStatusMessage(ngo.Email, ngo.Name, status))
	}
	return ngo, nil
}

// UserQuery is the query string of GET /api/admin/users.
type UserQuery struct {
	Search string
	Role   string
	SortBy string
	Order  string
	Limit  int
	Offset int
}

// UserPage is one page of users plus the number matching the filter.
type UserPage struct {
	Users  []model.User `json:"users"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (s *AdminService) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	f := repository.UserFilter{
		Search: strings.TrimSpace(q.Search),
		Sort:   repository.Sort{By: q.SortBy, Desc: strings.EqualFold(q.Order, "desc")},
		ListOptions: repository.ListOptions{
			Limit:  q.Limit,
			Offset: q.Offset,
		}.Normalize(),
	}
	if q.Role != "" {
		role, ok := model.ParseRole(q.Role)
		if !ok {
			return nil, apperror.ValidationFailed("role", "role must be one of: volunteer, ngo, admin")
		}
		f.Role = role
	}

	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserPage{Users: users, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// DeleteUser removes a user and everything hanging off it, then cleans up
// the files the account owned.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	refs := []string{u.ProfilePicture}
	switch u.Role {
	case model.RoleVolunteer:
		if vol, err := s.vols.GetByUserID(ctx, id); err == nil {
			refs = append(refs, vol.ResumePDF)
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("loading volunteer profile of user %s: %w", id, err)
		}
	case model.RoleNGO:
		if ngo, err := s.ngos.GetByUserID(ctx, id); err == nil {
			media, err := s.ngos.MediaRefs(ctx, ngo.ID)
			if err != nil {
				return fmt.Errorf("listing media of NGO %s: %w", ngo.ID, err)
			}
			refs = append(refs, media...)
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("loading NGO profile of user %s: %w", id, err)
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	for _, ref := range refs {
		discard(ctx, s.files, s.logger, ref)
	}

	s.logger.Info("user deleted",
		slog.String("userID", id),
		slog.String("role", string(u.Role)),
	)
	return nil
}

func (s *AdminService) Stats(ctx context.Context) (*model.PlatformStats, error) {
	st, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return st, nil
}
