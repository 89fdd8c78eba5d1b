package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/apperror"
)

func TestUpdateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.volunteer(t, "gina")
	env.volunteer(t, "hank")

	u, err := env.users.UpdateEmail(ctx, p.ID, " Gina.New@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "gina.new@example.com", u.Email)

	_, err = env.users.UpdateEmail(ctx, p.ID, "hank@example.com")
	assertAppError(t, err, apperror.ErrConflict)

	_, err = env.users.UpdateEmail(ctx, p.ID, "not-an-email")
	assertAppError(t, err, apperror.ErrValidation)

	_, err = env.users.UpdateEmail(ctx, p.ID, "")
	assertAppError(t, err, apperror.ErrValidation)

	// Setting the current address again is a no-op.
	u, err = env.users.UpdateEmail(ctx, p.ID, "gina.new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "gina.new@example.com", u.Email)
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.volunteer(t, "ivan")

	err := env.users.UpdatePassword(ctx, p.ID, "wrong-password", "newpassword1")
	assertAppError(t, err, apperror.ErrUnauthorized)

	err = env.users.UpdatePassword(ctx, p.ID, "password123", "short")
	assertAppError(t, err, apperror.ErrValidation)

	err = env.users.UpdatePassword(ctx, p.ID, "password123", strings.Repeat("x", 73))
	assertAppError(t, err, apperror.ErrValidation)

	err = env.users.UpdatePassword(ctx, p.ID, "", "newpassword1")
	assertAppError(t, err, apperror.ErrValidation)

	require.NoError(t, env.users.UpdatePassword(ctx, p.ID, "password123", "newpassword1"))

	_, err = env.auth.Login(ctx, "ivan@example.com", "password123")
	assertAppError(t, err, apperror.ErrUnauthorized)
	_, err = env.auth.Login(ctx, "ivan@example.com", "newpassword1")
	require.NoError(t, err)
}

func TestProfilePicture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.volunteer(t, "judy")

	err := env.users.DeleteProfilePicture(ctx, p.ID)
	assertAppError(t, err, apperror.ErrValidation)

	first, err := env.users.UploadProfilePicture(ctx, p.ID, strings.NewReader("png-1"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ProfilePicture)
	assert.True(t, env.files.has(first.ProfilePicture))
	oldRef := first.ProfilePicture

	second, err := env.users.UploadProfilePicture(ctx, p.ID, strings.NewReader("png-2"))
	require.NoError(t, err)
	assert.NotEqual(t, oldRef, second.ProfilePicture)
	assert.False(t, env.files.has(oldRef), "replaced picture should be removed")

	stored, err := env.users.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ProfilePicture, stored.ProfilePicture)

	// A rejected upload leaves the current picture alone.
	_, err = env.users.UploadProfilePicture(ctx, p.ID, strings.NewReader(""))
	assertAppError(t, err, apperror.ErrValidation)
	assert.True(t, env.files.has(second.ProfilePicture))

	require.NoError(t, env.users.DeleteProfilePicture(ctx, p.ID))
	assert.False(t, env.files.has(second.ProfilePicture))
	stored, err = env.users.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ProfilePicture)
}

func TestUserGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Get(ctx, " ")
	assertAppError(t, err, apperror.ErrValidation)

	_, err = env.users.Get(ctx, "missing")
	assertAppError(t, err, apperror.ErrNotFound)
}

func TestVolunteerProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.volunteer(t, "kim")

	updated, err := env.vols.UpdateProfile(ctx, p.ID, VolunteerUpdate{Skills: ptr("  carpentry ")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "carpentry", updated.Skills)
	assert.Equal(t, "weekends", updated.Availability, "untouched field keeps its value")

	withResume, err := env.vols.UpdateProfile(ctx, p.ID, VolunteerUpdate{Availability: ptr("mornings")}, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "mornings", withResume.Availability)
	require.NotEmpty(t, withResume.ResumePDF)
	assert.True(t, env.files.has(withResume.ResumePDF))

	replaced, err := env.vols.UploadResume(ctx, p.ID, strings.NewReader("%PDF-1.5"))
	require.NoError(t, err)
	assert.False(t, env.files.has(withResume.ResumePDF))

	require.NoError(t, env.vols.DeleteResume(ctx, p.ID))
	assert.False(t, env.files.has(replaced.ResumePDF))

	err = env.vols.DeleteResume(ctx, p.ID)
	assertAppError(t, err, apperror.ErrValidation)

	_, err = env.vols.UpdateProfile(ctx, p.ID, VolunteerUpdate{Skills: ptr(strings.Repeat("a", 2001))}, nil)
	assertAppError(t, err, apperror.ErrValidation)

	all, err := env.vols.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kim", all[0].Username)
}
