// Package repository declares the persistence interfaces the service layer
// depends on. The SQL implementation lives in repository/sqlstore.
package repository

import (
	"context"

	"github.com/sakif/volunteer-connect/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps Limit to 1..MaxListLimit (0 means DefaultListLimit) and
// Offset to >= 0.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Sort names a column by its API name ("createdAt", "date") and a
// direction. Unknown columns fall back to the repository's default.
type Sort struct {
	By   string
	Desc bool
}

type UserFilter struct {
	Search string     // case-insensitive substring of username or email
	Role   model.Role // "" for all roles
	Sort   Sort
	ListOptions
}

// FeedFilter selects events or opportunities.
type FeedFilter struct {
	Search       string // case-insensitive substring of title or description
	Location     string // case-insensitive substring of location
	NGOID        string // restrict to one NGO
	ApprovedOnly bool   // only rows whose NGO is approved
	Sort         Sort
	ListOptions
}

// ApplicationFilter selects applications. Empty fields do not filter.
type ApplicationFilter struct {
	OpportunityID string
	VolunteerID   string
	NGOID         string
}

type UserRepository interface {
	// CreateWithProfile inserts u and, depending on its role, ngo or
	// volunteer in one transaction. IDs and timestamps are filled in.
	CreateWithProfile(ctx context.Context, u *model.User, ngo *model.NGOProfile, vol *model.VolunteerProfile) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, f UserFilter) ([]model.User, int, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfilePicture(ctx context.Context, id, ref string) error
	// Delete removes the user and everything that cascades from it, keeping
	// the hour totals of affected volunteers correct.
	Delete(ctx context.Context, id string) error
}

type NGORepository interface {
	GetByID(ctx context.Context, id string) (*model.NGOProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.NGOProfile, error)
	// List returns all profiles, or only those in status when it is non-empty.
	List(ctx context.Context, status model.NGOStatus) ([]model.NGOProfile, error)
	Update(ctx context.Context, p *model.NGOProfile) error
	SetStatus(ctx context.Context, id string, status model.NGOStatus) error
	// MediaRefs returns the stored poster and image refs of every event and
	// opportunity the NGO owns. Empty refs are skipped.
	MediaRefs(ctx context.Context, id string) ([]string, error)
}

type VolunteerRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.VolunteerProfile, error)
	List(ctx context.Context) ([]model.VolunteerProfile, error)
	Update(ctx context.Context, p *model.VolunteerProfile) error
	SetResume(ctx context.Context, userID, ref string) error
}

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, f FeedFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	SetPoster(ctx context.Context, id, ref string) error
	Delete(ctx context.Context, id string) error
}

type AttendeeRepository interface {
	Create(ctx context.Context, a *model.EventAttendee) error
	GetByID(ctx context.Context, id string) (*model.EventAttendee, error)
	GetByEventAndVolunteer(ctx context.Context, eventID, volunteerID string) (*model.EventAttendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.EventAttendee, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]model.EventAttendee, error)
	Delete(ctx context.Context, id string) error
}

type OpportunityRepository interface {
	Create(ctx context.Context, o *model.Opportunity) error
	GetByID(ctx context.Context, id string) (*model.Opportunity, error)
	List(ctx context.Context, f FeedFilter) ([]model.Opportunity, error)
	Update(ctx context.Context, o *model.Opportunity) error
	SetImage(ctx context.Context, id, ref string) error
	// Delete removes the opportunity and its applications and recomputes
	// the hour totals of the volunteers who had approved applications.
	Delete(ctx context.Context, id string) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]model.Application, error)
	Applicants(ctx context.Context, opportunityID string) ([]model.Applicant, error)
	// SetStatus, SetHours and Delete recompute the volunteer's total hours
	// in the same transaction as the change.
	SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error
	// SetHours fails with a validation error unless the application is
	// approved. With onlyIfUnset it fails with a conflict when hours were
	// already recorded.
	SetHours(ctx context.Context, id string, hours int, onlyIfUnset bool) error
	Delete(ctx context.Context, id string) error
}

type StatsRepository interface {
	Stats(ctx context.Context) (*model.PlatformStats, error)
}
