package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

// AdminHandler serves /api/admin. Every route is gated to the admin role
// by the router.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleApproveNGO  PATCH /api/admin/approve-ngo/{id}
func (h *AdminHandler) HandleApproveNGO(w http.ResponseWriter, r *http.Request) {
	ngo, err := h.admin.ApproveNGO(r.Context(), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngo)
}

// HandleRejectNGO  PATCH /api/admin/reject-ngo/{id}
func (h *AdminHandler) HandleRejectNGO(w http.ResponseWriter, r *http.Request) {
	ngo, err := h.admin.RejectNGO(r.Context(), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngo)
}

// HandleListUsers  GET /api/admin/users?search=&role=&sortBy=&order=&limit=&offset=
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	page, err := h.admin.ListUsers(r.Context(), service.UserQuery{
		Search: q.Get("search"),
		Role:   q.Get("role"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleDeleteUser  DELETE /api/admin/user/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}

// HandleStats  GET /api/admin/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
