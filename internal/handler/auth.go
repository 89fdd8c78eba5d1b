package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler serves registration, login, token refresh and the optional
// GitHub sign-in.
//
//   - HandleRegister, HandleLogin → issue access + refresh tokens
//   - HandleRefresh               → trade a refresh token for an access token
//   - HandleValidate              → echo the authenticated account
//   - HandleLogout                → clear the token cookie
//   - HandleGitHubLogin/Callback  → OAuth redirect dance (nil github disables it)
type AuthHandler struct {
	svc         *service.AuthService
	github      *auth.GitHubProvider
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, frontendURL string, logger *slog.Logger) *AuthHandler {
	if frontendURL == "" {
		frontendURL = "/"
	}
	return &AuthHandler{svc: svc, github: github, frontendURL: frontendURL, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register → 201 {user, accessToken, refreshToken}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, res.AccessToken)
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials.
//
// HTTP: POST /api/auth/login → 200 {user, accessToken, refreshToken}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, res)
}

type refreshRequest struct {
	Token string `json:"token"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleRefresh issues a new access token.
//
// HTTP: POST /api/auth/refresh-token {token} → 200 {accessToken}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	tok, err := h.svc.Refresh(r.Context(), req.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, tok)
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: tok})
}

// HandleValidate returns the account behind the presented token.
//
// HTTP: GET /api/auth/validate (also GET /api/users/me)
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	acc, err := h.svc.Account(r.Context(), p.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// HandleLogout deletes the token cookie. Tokens are stateless, so a copy
// held elsewhere stays valid until it expires.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "logged out")
}

// HandleGitHubLogin redirects to GitHub with a CSRF state kept in a
// short-lived cookie.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback signs in the account whose e-mail matches the
// GitHub primary address and redirects to the frontend.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"?auth=denied", http.StatusSeeOther)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"?auth=failed", http.StatusSeeOther)
		return
	}

	res, err := h.svc.SignInWithEmail(r.Context(), ghUser.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.Redirect(w, r, h.frontendURL+"?auth=unregistered", http.StatusSeeOther)
			return
		}
		writeError(w, h.logger, err)
		return
	}

	h.setTokenCookie(w, res.AccessToken)
	http.Redirect(w, r, h.frontendURL, http.StatusSeeOther)
}

// setTokenCookie stores the access token for browser clients.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.svc.AccessTTL(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
