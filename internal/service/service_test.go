package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/notify"
	"github.com/sakif/volunteer-connect/internal/repository/sqlstore"
	"github.com/sakif/volunteer-connect/internal/storage"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeFiles keeps uploads in memory. Empty uploads are rejected the way
// storage.Uploader rejects them.
type fakeFiles struct {
	mu      sync.Mutex
	n       int
	files   map[string][]byte
	removed []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string][]byte)}
}

func (f *fakeFiles) Save(_ context.Context, kind storage.Kind, ownerID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", apperror.ValidationFailed("file", "file is empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	ref := fmt.Sprintf("/uploads/%s/%s-%d", kind, ownerID, f.n)
	f.files[ref] = data
	return ref, nil
}

func (f *fakeFiles) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, ref)
	f.removed = append(f.removed, ref)
	return nil
}

func (f *fakeFiles) has(ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[ref]
	return ok
}

// recordingNotifier remembers every message instead of sending it.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Notify(_ context.Context, m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recordingNotifier) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

// testEnv wires every service to one in-memory database.
type testEnv struct {
	db      *sqlstore.DB
	access  *auth.TokenService
	refresh *auth.TokenService
	files   *fakeFiles
	notes   *recordingNotifier

	auth      *AuthService
	users     *UserService
	vols      *VolunteerService
	ngos      *NGOService
	admin     *AdminService
	events    *EventService
	attendees *AttendeeService
	opps      *OpportunityService
	apps      *ApplicationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	access, err := auth.NewTokenService("access-secret-for-tests-only", time.Hour, auth.AudienceAccess)
	require.NoError(t, err)
	refresh, err := auth.NewTokenService("refresh-secret-for-tests-only", 24*time.Hour, auth.AudienceRefresh)
	require.NoError(t, err)

	// Cost 4 is the bcrypt minimum and keeps tests fast.
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	env := &testEnv{
		db:      db,
		access:  access,
		refresh: refresh,
		files:   newFakeFiles(),
		notes:   &recordingNotifier{},
	}
	env.auth = NewAuthService(db.Users(), db.NGOs(), db.Volunteers(), passwords, access, refresh, false, logger)
	env.users = NewUserService(db.Users(), passwords, env.files, logger)
	env.vols = NewVolunteerService(db.Volunteers(), env.files, logger)
	env.ngos = NewNGOService(db.NGOs(), db.Users(), env.files, logger)
	env.admin = NewAdminService(db.Users(), db.NGOs(), db.Volunteers(), db.Stats(), env.files, env.notes, logger)
	env.events = NewEventService(db.Events(), db.NGOs(), env.files, logger)
	env.attendees = NewAttendeeService(db.Attendees(), db.Events(), db.NGOs(), logger)
	env.opps = NewOpportunityService(db.Opportunities(), db.NGOs(), env.files, logger)
	env.apps = NewApplicationService(db.Applications(), db.Opportunities(), db.NGOs(), env.notes, logger)
	return env
}

func principalOf(acc *model.Account) auth.Principal {
	return auth.Principal{ID: acc.ID, Role: acc.Role}
}

func (e *testEnv) volunteer(t *testing.T, username string) auth.Principal {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "password123",
		Role:         "volunteer",
		Skills:       "first aid",
		Availability: "weekends",
	})
	require.NoError(t, err)
	return principalOf(res.User)
}

// ngo registers an NGO and, unless status is pending, applies the admin
// decision directly.
func (e *testEnv) ngo(t *testing.T, username string, status model.NGOStatus) (auth.Principal, *model.NGOProfile) {
	t.Helper()
	ctx := context.Background()
	res, err := e.auth.Register(ctx, RegisterInput{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "password123",
		Role:        "ngo",
		Name:        username + " Foundation",
		Description: "helping out",
	})
	require.NoError(t, err)
	ngo := res.User.NGOProfile
	require.NotNil(t, ngo)
	if status != model.NGOPending {
		require.NoError(t, e.db.NGOs().SetStatus(ctx, ngo.ID, status))
		ngo.Status = status
	}
	return principalOf(res.User), ngo
}

func (e *testEnv) adminUser(t *testing.T) auth.Principal {
	t.Helper()
	u, err := e.auth.CreateAdmin(context.Background(), "root", "root@example.com", "password123")
	require.NoError(t, err)
	return auth.Principal{ID: u.ID, Role: u.Role}
}

func (e *testEnv) event(t *testing.T, p auth.Principal, title string) *model.Event {
	t.Helper()
	ev, err := e.events.Create(context.Background(), p, EventInput{
		Title:       title,
		Description: "bring gloves",
		Location:    "Riverside Park",
		Date:        "2026-06-01",
	})
	require.NoError(t, err)
	return ev
}

func (e *testEnv) opportunity(t *testing.T, p auth.Principal, title string) *model.Opportunity {
	t.Helper()
	o, err := e.opps.Create(context.Background(), p, OpportunityInput{
		Title:        title,
		Description:  "sorting donations",
		Location:     "Warehouse 4",
		Date:         "2026-07-01T09:00:00Z",
		Requirements: "none",
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) totalHours(t *testing.T, volunteerID string) int {
	t.Helper()
	p, err := e.vols.Get(context.Background(), volunteerID)
	require.NoError(t, err)
	return p.TotalHours
}

// assertAppError checks err wraps sentinel.
func assertAppError(t *testing.T, err error, sentinel error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel, "got %v", err)
}

// =========================================================================
// SHARED HELPER TESTS
// =========================================================================

func TestValidateStruct_FieldNamesAndMessages(t *testing.T) {
	tests := []struct {
		name      string
		in        any
		wantField string
		wantMsg   string
	}{
		{
			name:      "required uses the json name",
			in:        RegisterInput{Email: "a@b.co", Password: "password123", Role: "volunteer"},
			wantField: "username",
			wantMsg:   "username is required",
		},
		{
			name:      "string min counts characters",
			in:        RegisterInput{Username: "bob", Email: "a@b.co", Password: "short", Role: "volunteer"},
			wantField: "password",
			wantMsg:   "password must be at least 8 characters",
		},
		{
			name:      "email format",
			in:        emailInput{NewEmail: "not-an-email"},
			wantField: "newEmail",
			wantMsg:   "newEmail must be a valid email address",
		},
		{
			name:      "numeric bound",
			in:        hoursInput{Hours: -1},
			wantField: "hours",
			wantMsg:   "hours must be 0 or more",
		},
		{
			name:      "pointer field present but empty",
			in:        EventUpdate{Title: ptr("")},
			wantField: "title",
			wantMsg:   "title must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStruct(tt.in)
			assertAppError(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2026-03-14T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC), d)

	_, err = parseDate("next tuesday")
	assertAppError(t, err, apperror.ErrValidation)
}

func ptr[T any](v T) *T { return &v }
