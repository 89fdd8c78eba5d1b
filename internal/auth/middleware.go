package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/model"
)

// CookieName is the cookie holding the access token for browser clients.
const CookieName = "token"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller as seen by handlers and services.
type Principal struct {
	ID   string
	Role model.Role
}

func (p Principal) Is(role model.Role) bool {
	return p.Role == role
}

// UserResolver loads the account a token refers to. RequireAuth uses it so
// that deleted accounts stop authenticating and role changes take effect
// without waiting for the token to expire.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth rejects the request with 401 unless it carries a valid
// access token for an existing user. On success the Principal is stored in
// the request context.
func RequireAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticate(r, tokens, users)
			if err != nil {
				if errors.Is(err, errResolve) {
					writeAuthError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
					return
				}
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", authMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth stores the Principal when a valid token is present and lets
// the request through either way. Public feeds use it to show a non-approved
// NGO's own content back to it.
func OptionalAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := authenticate(r, tokens, users); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after RequireAuth. It answers 403 unless the
// caller has one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if !slices.Contains(roles, p.Role) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "you do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller stored by RequireAuth or
// OptionalAuth. ok is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.ID != ""
}

// TokenFromRequest finds the access token in, in order: an
// "Authorization: Bearer <t>" header, a bare "Authorization: <t>" header,
// or the token cookie. It returns "" when none is present.
func TokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return h
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

var (
	errNoToken = errors.New("auth: no token")
	errResolve = errors.New("auth: resolving user")
)

func authenticate(r *http.Request, tokens *TokenService, users UserResolver) (Principal, error) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return Principal{}, errNoToken
	}

	claims, err := tokens.Validate(raw)
	if err != nil {
		return Principal{}, err
	}

	u, err := users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Principal{}, err
		}
		return Principal{}, errors.Join(errResolve, err)
	}

	return Principal{ID: u.ID, Role: u.Role}, nil
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, errNoToken):
		return "valid authentication required"
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case errors.Is(err, apperror.ErrNotFound):
		return "user no longer exists"
	}
	return "invalid token"
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
