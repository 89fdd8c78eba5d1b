package sqlstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

func apply(t *testing.T, db *DB, oppID, volunteerID string) *model.Application {
	t.Helper()
	a := &model.Application{OpportunityID: oppID, VolunteerID: volunteerID}
	require.NoError(t, db.Applications().Create(context.Background(), a))
	return a
}

func TestApplicationCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, ngo := createNGO(t, db, "helpers", model.NGOApproved)
	opp := createOpportunity(t, db, ngo.ID, "Tutoring")
	alice := createVolunteer(t, db, "alice")

	a := apply(t, db, opp.ID, alice.ID)
	assert.Equal(t, model.ApplicationPending, a.Status)
	assert.Equal(t, 0, a.HoursWorked)

	err := db.Applications().Create(ctx, &model.Application{OpportunityID: opp.ID, VolunteerID: alice.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict, "one application per opportunity and volunteer")

	got, err := db.Applications().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tutoring", got.OpportunityTitle)
	assert.Equal(t, ngo.ID, got.NGOID)
	assert.Equal(t, "alice", got.Username)
}

func TestApplicationHours(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	apps := db.Applications()
	_, ngo := createNGO(t, db, "helpers", model.NGOApproved)
	opp1 := createOpportunity(t, db, ngo.ID, "Tutoring")
	opp2 := createOpportunity(t, db, ngo.ID, "Food Bank")
	alice := createVolunteer(t, db, "alice")

	a1 := apply(t, db, opp1.ID, alice.ID)
	a2 := apply(t, db, opp2.ID, alice.ID)

	// Hours only on approved applications.
	err := apps.SetHours(ctx, a1.ID, 5, true)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 0, totalHours(t, db, alice.ID))

	require.NoError(t, apps.SetStatus(ctx, a1.ID, model.ApplicationApproved))
	require.NoError(t, apps.SetHours(ctx, a1.ID, 5, true))
	assert.Equal(t, 5, totalHours(t, db, alice.ID))

	// assign is one-shot, update overwrites.
	assert.ErrorIs(t, apps.SetHours(ctx, a1.ID, 7, true), apperror.ErrConflict)
	require.NoError(t, apps.SetHours(ctx, a1.ID, 8, false))
	assert.Equal(t, 8, totalHours(t, db, alice.ID))

	require.NoError(t, apps.SetStatus(ctx, a2.ID, model.ApplicationApproved))
	require.NoError(t, apps.SetHours(ctx, a2.ID, 3, true))
	assert.Equal(t, 11, totalHours(t, db, alice.ID))

	// Rejecting drops the hours from the total.
	require.NoError(t, apps.SetStatus(ctx, a2.ID, model.ApplicationRejected))
	assert.Equal(t, 8, totalHours(t, db, alice.ID))
	assert.ErrorIs(t, apps.SetHours(ctx, a2.ID, 1, false), apperror.ErrValidation)

	// Deleting an application drops its hours.
	require.NoError(t, apps.Delete(ctx, a1.ID))
	assert.Equal(t, 0, totalHours(t, db, alice.ID))
	assert.ErrorIs(t, apps.Delete(ctx, a1.ID), apperror.ErrNotFound)
}

func TestApplicationHours_ConcurrentAssign(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, ngo := createNGO(t, db, "helpers", model.NGOApproved)
	opp := createOpportunity(t, db, ngo.ID, "Tutoring")
	alice := createVolunteer(t, db, "alice")
	a := apply(t, db, opp.ID, alice.ID)
	require.NoError(t, db.Applications().SetStatus(ctx, a.ID, model.ApplicationApproved))

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = db.Applications().SetHours(ctx, a.ID, i+1, true)
		}()
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrConflict)
	}
	assert.Equal(t, 1, won, "exactly one assignment sticks")

	got, err := db.Applications().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, got.HoursWorked, totalHours(t, db, alice.ID))
}

func TestOpportunityDelete_RecalculatesHours(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, ngo := createNGO(t, db, "helpers", model.NGOApproved)
	keep := createOpportunity(t, db, ngo.ID, "Keep")
	drop := createOpportunity(t, db, ngo.ID, "Drop")
	alice := createVolunteer(t, db, "alice")

	for _, opp := range []*model.Opportunity{keep, drop} {
		a := apply(t, db, opp.ID, alice.ID)
		require.NoError(t, db.Applications().SetStatus(ctx, a.ID, model.ApplicationApproved))
		require.NoError(t, db.Applications().SetHours(ctx, a.ID, 4, true))
	}
	require.Equal(t, 8, totalHours(t, db, alice.ID))

	require.NoError(t, db.Opportunities().Delete(ctx, drop.ID))
	assert.Equal(t, 4, totalHours(t, db, alice.ID))
}

func TestApplicationList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, ngoA := createNGO(t, db, "a", model.NGOApproved)
	_, ngoB := createNGO(t, db, "b", model.NGOApproved)
	oppA := createOpportunity(t, db, ngoA.ID, "A")
	oppB := createOpportunity(t, db, ngoB.ID, "B")
	alice := createVolunteer(t, db, "alice")
	bob := createVolunteer(t, db, "bob")

	apply(t, db, oppA.ID, alice.ID)
	apply(t, db, oppA.ID, bob.ID)
	apply(t, db, oppB.ID, alice.ID)

	tests := []struct {
		name   string
		filter repository.ApplicationFilter
		want   int
	}{
		{"all", repository.ApplicationFilter{}, 3},
		{"by opportunity", repository.ApplicationFilter{OpportunityID: oppA.ID}, 2},
		{"by volunteer", repository.ApplicationFilter{VolunteerID: alice.ID}, 2},
		{"by ngo", repository.ApplicationFilter{NGOID: ngoB.ID}, 1},
		{"combined", repository.ApplicationFilter{NGOID: ngoA.ID, VolunteerID: bob.ID}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Applications().List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	applicants, err := db.Applications().Applicants(ctx, oppA.ID)
	require.NoError(t, err)
	require.Len(t, applicants, 2)
	assert.Equal(t, "first aid", applicants[0].Skills)
	assert.Equal(t, model.ApplicationPending, applicants[0].Status)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, ngo := createNGO(t, db, "helpers", model.NGOApproved)
	createNGO(t, db, "waiting", model.NGOPending)
	alice := createVolunteer(t, db, "alice")
	createVolunteer(t, db, "bob")
	ev := createEvent(t, db, ngo.ID, "Cleanup", "Dhaka", createOpportunity(t, db, ngo.ID, "Tutoring").Date)
	require.NoError(t, db.Attendees().Create(ctx, &model.EventAttendee{EventID: ev.ID, VolunteerID: alice.ID}))

	opps, err := db.Opportunities().List(ctx, repository.FeedFilter{})
	require.NoError(t, err)
	a := apply(t, db, opps[0].ID, alice.ID)
	require.NoError(t, db.Applications().SetStatus(ctx, a.ID, model.ApplicationApproved))
	require.NoError(t, db.Applications().SetHours(ctx, a.ID, 9, true))

	st, err := db.Stats().Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalUsers)
	assert.Equal(t, 2, st.Users[model.RoleVolunteer])
	assert.Equal(t, 2, st.Users[model.RoleNGO])
	assert.Equal(t, 0, st.Users[model.RoleAdmin])
	assert.Equal(t, 1, st.NGOs[model.NGOApproved])
	assert.Equal(t, 1, st.NGOs[model.NGOPending])
	assert.Equal(t, 0, st.NGOs[model.NGORejected])
	assert.Equal(t, 1, st.Events)
	assert.Equal(t, 1, st.RSVPs)
	assert.Equal(t, 1, st.Opportunities)
	assert.Equal(t, 1, st.Applications[model.ApplicationApproved])
	assert.Equal(t, 9, st.TotalHours)
}
