package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

// UserHandler serves the account settings shared by all roles.
type UserHandler struct {
	users     *service.UserService
	maxUpload int64
	logger    *slog.Logger
}

func NewUserHandler(users *service.UserService, maxUpload int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, maxUpload: maxUpload, logger: logger}
}

// HandleGet returns a user's public fields.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

// HandleUpdateEmail
//
// HTTP: PUT /api/users/update-email {newEmail}
func (h *UserHandler) HandleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req updateEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.users.UpdateEmail(r.Context(), p.ID, req.NewEmail)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleUpdatePassword
//
// HTTP: PUT /api/users/update-password {oldPassword, newPassword}
func (h *UserHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req updatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.users.UpdatePassword(r.Context(), p.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// HandleUploadProfilePicture
//
// HTTP: POST /api/users/upload-profile-picture (multipart field "profilePicture")
func (h *UserHandler) HandleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	f, err := requireFile(w, r, "profilePicture", h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer f.Close()

	u, err := h.users.UploadProfilePicture(r.Context(), p.ID, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleDeleteProfilePicture
//
// HTTP: DELETE /api/users/delete-profile-picture
func (h *UserHandler) HandleDeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.users.DeleteProfilePicture(r.Context(), p.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "profile picture deleted")
}
