// Package service contains the business rules of volunteer-connect.
//
// The layers are:
//
//	Handler (HTTP)    → parses requests, writes responses
//	Service (here)    → validates input, enforces ownership, orchestrates
//	Repository (data) → reads/writes the database
//
// Services take repository interfaces, never the concrete sqlstore, so they
// can be driven from HTTP handlers, the CLI or tests alike. Role gates
// ("only volunteers may RSVP") are applied by the router middleware; the
// rules that need data ("only the NGO that posted this event may edit it")
// live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
	"github.com/sakif/volunteer-connect/internal/storage"
)

// FileStore stores uploads. *storage.Uploader satisfies it.
type FileStore interface {
	Save(ctx context.Context, kind storage.Kind, ownerID string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match what
// the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the validate tags on s and converts the first failure
// into an apperror.ValidationFailed.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}
	fe := ves[0]
	return apperror.ValidationFailed(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	isString := kind == reflect.String

	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if isString && fe.Param() == "1" {
			return field + " must not be empty"
		}
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}

// trimPtr trims *s in place.
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain dates. Plain dates are UTC
// midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.ValidationFailed("date", "date must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

// FeedQuery is the public listing query for events and opportunities.
type FeedQuery struct {
	Search   string
	Location string
	SortBy   string
	Order    string // "asc" or "desc"
	Limit    int
	Offset   int
}

func (q FeedQuery) filter() repository.FeedFilter {
	return repository.FeedFilter{
		Search:   strings.TrimSpace(q.Search),
		Location: strings.TrimSpace(q.Location),
		Sort:     repository.Sort{By: q.SortBy, Desc: strings.EqualFold(q.Order, "desc")},
		ListOptions: repository.ListOptions{
			Limit:  q.Limit,
			Offset: q.Offset,
		}.Normalize(),
	}
}

// callerNGO returns the NGO profile of p, who must be an NGO user.
func callerNGO(ctx context.Context, ngos repository.NGORepository, p auth.Principal) (*model.NGOProfile, error) {
	if !p.Is(model.RoleNGO) {
		return nil, apperror.Forbidden("only NGO accounts can do this")
	}
	ngo, err := ngos.GetByUserID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMsg("NGO profile not found")
		}
		return nil, fmt.Errorf("loading NGO profile of user %s: %w", p.ID, err)
	}
	return ngo, nil
}

// authorizeOwner lets p act on a row owned by ngoID: the owning NGO always,
// admins only when allowAdmin is set.
func authorizeOwner(ctx context.Context, ngos repository.NGORepository, p auth.Principal, ngoID string, allowAdmin bool, what string) error {
	if allowAdmin && p.Is(model.RoleAdmin) {
		return nil
	}
	ngo, err := callerNGO(ctx, ngos, p)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			return apperror.Forbidden("only the NGO that owns this " + what + " can do this")
		}
		return err
	}
	if ngo.ID != ngoID {
		return apperror.Forbidden("only the NGO that owns this " + what + " can do this")
	}
	return nil
}

// visibleTo reports whether a row owned by ngoID, whose NGO is in status,
// may be shown to viewer. Rows of approved NGOs are public; others are seen
// by admins and the owning NGO only. viewer is nil for anonymous callers.
func visibleTo(ctx context.Context, ngos repository.NGORepository, viewer *auth.Principal, ngoID string, status model.NGOStatus) (bool, error) {
	if status == model.NGOApproved {
		return true, nil
	}
	if viewer == nil {
		return false, nil
	}
	if viewer.Is(model.RoleAdmin) {
		return true, nil
	}
	if !viewer.Is(model.RoleNGO) {
		return false, nil
	}
	ngo, err := ngos.GetByUserID(ctx, viewer.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return ngo.ID == ngoID, nil
}

// loadAccount attaches the role's profile to u.
func loadAccount(ctx context.Context, ngos repository.NGORepository, vols repository.VolunteerRepository, u *model.User) (*model.Account, error) {
	acc := &model.Account{User: u}
	var err error
	switch u.Role {
	case model.RoleNGO:
		acc.NGOProfile, err = ngos.GetByUserID(ctx, u.ID)
	case model.RoleVolunteer:
		acc.VolunteerProfile, err = vols.GetByUserID(ctx, u.ID)
	}
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("loading profile of user %s: %w", u.ID, err)
	}
	return acc, nil
}
