package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/config"
	"github.com/sakif/volunteer-connect/internal/notify"
	"github.com/sakif/volunteer-connect/internal/repository/sqlstore"
	"github.com/sakif/volunteer-connect/internal/server"
	"github.com/sakif/volunteer-connect/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Notify(_ context.Context, m notify.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
}

func (o *outbox) messages() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.sent...)
}

type api struct {
	t       *testing.T
	handler http.Handler
	outbox  *outbox
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               8080,
		DatabaseURL:        ":memory:",
		JWTSecret:          "access-secret-for-tests",
		JWTRefreshSecret:   "refresh-secret-for-tests",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    24 * time.Hour,
		AllowAdminSignup:   true,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		FrontendURL:        "http://localhost:5173",
		MaxUploadBytes:     1 << 20,
		StorageBackend:     config.StorageLocal,
		LogLevel:           "error",
		LogFormat:          "text",
	}
}

func newAPI(t *testing.T, cfg *config.Config) *api {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	box := &outbox{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(cfg, server.Deps{
		DB:        db,
		Store:     local,
		Notifier:  box,
		Passwords: auth.NewPasswordServiceForTest(4),
	}, logger)
	require.NoError(t, err)

	return &api{t: t, handler: srv.Handler(), outbox: box}
}

// do sends body as JSON (or as-is when it is an io.Reader) and returns the
// recorder.
func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		r = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type authBody struct {
	User struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (a *api) register(username, role string, extra map[string]any) authBody {
	a.t.Helper()
	body := map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
		"role":     role,
	}
	for k, v := range extra {
		body[k] = v
	}
	rr := a.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[authBody](a.t, rr)
}

// approvedNGO registers an NGO, has admin approve it and returns the NGO's
// token and profile id.
func (a *api) approvedNGO(name, adminToken string) (string, string) {
	a.t.Helper()
	ngo := a.register(name, "ngo", map[string]any{"name": name + " org", "description": "community work"})
	profile := decode[map[string]any](a.t, a.do(http.MethodGet, "/api/ngos/me", ngo.AccessToken, nil))
	id := profile["id"].(string)

	rr := a.do(http.MethodPatch, "/api/admin/approve-ngo/"+id, adminToken, nil)
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())
	return ngo.AccessToken, id
}

func TestAPI_EventLifecycle(t *testing.T) {
	a := newAPI(t, testConfig())
	admin := a.register("root", "admin", nil)
	ngo := a.register("helpers", "NGO", map[string]any{"name": "Helpers", "description": "we help"})
	vol := a.register("alice", "volunteer", map[string]any{"skills": "first aid"})
	assert.Equal(t, "ngo", ngo.User.Role)

	rr := a.do(http.MethodPost, "/api/events", ngo.AccessToken, map[string]any{
		"title": "Beach cleanup", "description": "Bring gloves", "location": "Cox's Bazar", "date": "2026-12-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	eventID := decode[map[string]any](t, rr)["id"].(string)

	// Pending NGO: hidden from the public, visible to its owner.
	assert.Empty(t, decode[[]map[string]any](t, a.do(http.MethodGet, "/api/events", "", nil)))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/events/"+eventID, "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/events/"+eventID, ngo.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/events/"+eventID+"/rsvp", vol.AccessToken, nil).Code)

	profile := decode[map[string]any](t, a.do(http.MethodGet, "/api/ngos/me", ngo.AccessToken, nil))
	rr = a.do(http.MethodPatch, "/api/admin/approve-ngo/"+profile["id"].(string), admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, a.outbox.messages(), 1)
	assert.Equal(t, "helpers@example.com", a.outbox.messages()[0].To)

	feed := decode[[]map[string]any](t, a.do(http.MethodGet, "/api/events?search=beach", "", nil))
	require.Len(t, feed, 1)
	assert.Equal(t, "Helpers", feed[0]["ngoName"])

	rr = a.do(http.MethodPost, "/api/events/"+eventID+"/rsvp", vol.AccessToken, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/events/"+eventID+"/rsvp", vol.AccessToken, nil).Code)

	attendees := decode[[]map[string]any](t, a.do(http.MethodGet, "/api/events/"+eventID+"/attendees", ngo.AccessToken, nil))
	require.Len(t, attendees, 1)
	assert.Equal(t, "alice", attendees[0]["username"])

	mine := decode[[]map[string]any](t, a.do(http.MethodGet, "/api/event-attendees/mine", vol.AccessToken, nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "Beach cleanup", mine[0]["eventTitle"])

	assert.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/events/"+eventID+"/rsvp", vol.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/events/"+eventID+"/rsvp", vol.AccessToken, nil).Code)

	assert.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/events/"+eventID, admin.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/events/"+eventID, "", nil).Code)
}

func TestAPI_ApplicationHours(t *testing.T) {
	a := newAPI(t, testConfig())
	admin := a.register("root", "admin", nil)
	ngoToken, _ := a.approvedNGO("shelter", admin.AccessToken)
	vol := a.register("bob", "volunteer", nil)

	rr := a.do(http.MethodPost, "/api/volunteer-opportunities", ngoToken, map[string]any{
		"title": "Food drive", "description": "Sort donations", "date": "2026-11-20T09:00", "requirements": "none",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	oppID := decode[map[string]any](t, rr)["id"].(string)

	rr = a.do(http.MethodPost, "/api/volunteer-opportunities/"+oppID+"/apply", vol.AccessToken, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	appID := decode[map[string]any](t, rr)["id"].(string)

	// Hours need an approved application.
	assert.Equal(t, http.StatusBadRequest,
		a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/assign-hours", ngoToken, map[string]any{"hours": 5}).Code)

	rr = a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/approve", ngoToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "approved", decode[map[string]any](t, rr)["status"])

	rr = a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/assign-hours", ngoToken, map[string]any{"hours": 5})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, http.StatusConflict,
		a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/assign-hours", ngoToken, map[string]any{"hours": 2}).Code)
	assert.Equal(t, http.StatusBadRequest,
		a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/update-hours", ngoToken, map[string]any{}).Code)

	rr = a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/update-hours", ngoToken, map[string]any{"hours": 8})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	me := decode[map[string]any](t, a.do(http.MethodGet, "/api/volunteers/me", vol.AccessToken, nil))
	assert.EqualValues(t, 8, me["totalHours"])

	report := decode[map[string]any](t, a.do(http.MethodGet, "/api/volunteer-opportunities/"+oppID+"/hours", ngoToken, nil))
	assert.EqualValues(t, 8, report["totalHours"])

	own := decode[map[string]any](t, a.do(http.MethodGet, "/api/volunteer-applications/"+appID+"/hours", vol.AccessToken, nil))
	assert.EqualValues(t, 8, own["hoursWorked"])

	// Approval and the reject below each notify the volunteer.
	rr = a.do(http.MethodPut, "/api/volunteer-applications/"+appID+"/status", ngoToken, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	me = decode[map[string]any](t, a.do(http.MethodGet, "/api/volunteers/me", vol.AccessToken, nil))
	assert.EqualValues(t, 0, me["totalHours"])

	var toBob int
	for _, m := range a.outbox.messages() {
		if m.To == "bob@example.com" {
			toBob++
		}
	}
	assert.Equal(t, 2, toBob)

	assert.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/volunteer-applications/"+appID, vol.AccessToken, nil).Code)
	assert.Empty(t, decode[[]map[string]any](t, a.do(http.MethodGet, "/api/volunteer-applications/my-applications", vol.AccessToken, nil)))
}

func TestAPI_AccessControl(t *testing.T) {
	a := newAPI(t, testConfig())
	admin := a.register("root", "admin", nil)
	ngo := a.register("helpers", "ngo", map[string]any{"name": "Helpers", "description": "we help"})
	vol := a.register("alice", "volunteer", nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/users/me", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/users/me", "not-a-jwt", http.StatusUnauthorized},
		{"refresh token used as access", http.MethodGet, "/api/users/me", vol.RefreshToken, http.StatusUnauthorized},
		{"volunteer on admin route", http.MethodGet, "/api/admin/stats", vol.AccessToken, http.StatusForbidden},
		{"ngo on admin route", http.MethodGet, "/api/admin/users", ngo.AccessToken, http.StatusForbidden},
		{"admin stats", http.MethodGet, "/api/admin/stats", admin.AccessToken, http.StatusOK},
		{"volunteer listing volunteers", http.MethodGet, "/api/volunteers", vol.AccessToken, http.StatusForbidden},
		{"ngo listing volunteers", http.MethodGet, "/api/volunteers", ngo.AccessToken, http.StatusOK},
		{"ngo creating rsvp", http.MethodPost, "/api/events/x/rsvp", ngo.AccessToken, http.StatusForbidden},
		{"volunteer creating event", http.MethodPost, "/api/events", vol.AccessToken, http.StatusForbidden},
		{"public ngo list", http.MethodGet, "/api/ngos", "", http.StatusOK},
		{"approved ngos need auth", http.MethodGet, "/api/ngos/approved", "", http.StatusUnauthorized},
		{"unknown event", http.MethodGet, "/api/events/missing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestAPI_AuthFlow(t *testing.T) {
	a := newAPI(t, testConfig())
	vol := a.register("alice", "volunteer", nil)

	rr := a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ALICE@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.AddCookie(cookie)
	res := httptest.NewRecorder()
	a.handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), `"volunteerProfile"`)

	assert.Equal(t, http.StatusUnauthorized,
		a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "alice@example.com", "password": "wrong-horse"}).Code)
	assert.Equal(t, http.StatusNotFound,
		a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "whatever1"}).Code)

	rr = a.do(http.MethodPost, "/api/auth/refresh-token", "", map[string]any{"token": vol.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	fresh := decode[map[string]string](t, rr)["accessToken"]
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/me", fresh, nil).Code)

	assert.Equal(t, http.StatusUnauthorized,
		a.do(http.MethodPost, "/api/auth/refresh-token", "", map[string]any{"token": vol.AccessToken}).Code)

	rr = a.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPI_AdminSignupDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AllowAdminSignup = false
	a := newAPI(t, cfg)

	rr := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "root", "email": "root@example.com", "password": "correct-horse", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_ProfilePictureUpload(t *testing.T) {
	a := newAPI(t, testConfig())
	vol := a.register("alice", "volunteer", nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("profilePicture", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/upload-profile-picture", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+vol.AccessToken)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ref := decode[map[string]any](t, rr)["profilePicture"].(string)
	require.True(t, strings.HasPrefix(ref, "/uploads/profile-pictures/"), ref)

	served := a.do(http.MethodGet, ref, "", nil)
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, pngBytes, served.Body.Bytes())

	assert.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/users/delete-profile-picture", vol.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, ref, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodDelete, "/api/users/delete-profile-picture", vol.AccessToken, nil).Code)
}

func TestAPI_CORSPreflight(t *testing.T) {
	a := newAPI(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := server.New(testConfig(), server.Deps{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
