package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
)

func TestNGOStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, pending := createNGO(t, db, "zeta", "")
	_, approved := createNGO(t, db, "alpha", model.NGOApproved)

	got, err := db.NGOs().GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)
	assert.Equal(t, "zeta@example.com", got.Email)

	all, err := db.NGOs().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha org", all[0].Name, "ordered by name")

	onlyApproved, err := db.NGOs().List(ctx, model.NGOApproved)
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	assert.Equal(t, approved.ID, onlyApproved[0].ID)

	require.NoError(t, db.NGOs().SetStatus(ctx, pending.ID, model.NGORejected))
	got, err = db.NGOs().GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NGORejected, got.Status)

	got.Name = "Zeta Foundation"
	got.Description = "new description"
	require.NoError(t, db.NGOs().Update(ctx, got))
	got, err = db.NGOs().GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zeta Foundation", got.Name)

	assert.ErrorIs(t, db.NGOs().SetStatus(ctx, "missing", model.NGOApproved), apperror.ErrNotFound)
	_, err = db.NGOs().GetByUserID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNGOStore_MediaRefs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, ngo := createNGO(t, db, "omega", model.NGOApproved)
	_, other := createNGO(t, db, "kappa", model.NGOApproved)

	refs, err := db.NGOs().MediaRefs(ctx, ngo.ID)
	require.NoError(t, err)
	assert.Empty(t, refs)

	when := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	ev := createEvent(t, db, ngo.ID, "Cleanup", "Dhaka", when)
	createEvent(t, db, ngo.ID, "No poster", "Dhaka", when)
	opp := createOpportunity(t, db, ngo.ID, "Tutoring")
	otherEv := createEvent(t, db, other.ID, "Elsewhere", "Sylhet", when)

	require.NoError(t, db.Events().SetPoster(ctx, ev.ID, "/uploads/posters/a.png"))
	require.NoError(t, db.Opportunities().SetImage(ctx, opp.ID, "/uploads/opportunities/b.png"))
	require.NoError(t, db.Events().SetPoster(ctx, otherEv.ID, "/uploads/posters/c.png"))

	refs, err = db.NGOs().MediaRefs(ctx, ngo.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/uploads/posters/a.png", "/uploads/opportunities/b.png"}, refs)
}

func TestVolunteerStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bob := createVolunteer(t, db, "bob")
	createVolunteer(t, db, "amy")

	list, err := db.Volunteers().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amy", list[0].Username)

	p, err := db.Volunteers().GetByUserID(ctx, bob.ID)
	require.NoError(t, err)
	p.Skills = "carpentry"
	p.Availability = "evenings"
	p.TotalHours = 999
	require.NoError(t, db.Volunteers().Update(ctx, p))
	require.NoError(t, db.Volunteers().SetResume(ctx, bob.ID, "/uploads/resumes/bob.pdf"))

	p, err = db.Volunteers().GetByUserID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "carpentry", p.Skills)
	assert.Equal(t, "evenings", p.Availability)
	assert.Equal(t, 0, p.TotalHours, "total hours are never written directly")
	assert.Equal(t, "/uploads/resumes/bob.pdf", p.ResumePDF)

	assert.ErrorIs(t, db.Volunteers().SetResume(ctx, "missing", "x"), apperror.ErrNotFound)
}
