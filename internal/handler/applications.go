package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/apperror"
	"github.com/sakif/volunteer-connect/internal/auth"
	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/service"
)

// ApplicationHandler serves /api/volunteer-applications.
type ApplicationHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(apps *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

// HandleList  GET /api/volunteer-applications
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	apps, err := h.apps.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HandleMine  GET /api/volunteer-applications/my-applications
func (h *ApplicationHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	apps, err := h.apps.Mine(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus  PUT /api/volunteer-applications/{id}/status {status}
func (h *ApplicationHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setStatus(w, r, req.Status)
}

// HandleApprove  PUT /api/volunteer-applications/{id}/approve
func (h *ApplicationHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, string(model.ApplicationApproved))
}

// HandleReject  PUT /api/volunteer-applications/{id}/reject
func (h *ApplicationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, string(model.ApplicationRejected))
}

func (h *ApplicationHandler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	a, err := h.apps.SetStatus(r.Context(), p, pathID(r), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type hoursRequest struct {
	Hours *int `json:"hours"`
}

// HandleAssignHours  PUT /api/volunteer-applications/{id}/assign-hours {hours}
func (h *ApplicationHandler) HandleAssignHours(w http.ResponseWriter, r *http.Request) {
	h.setHours(w, r, h.apps.AssignHours)
}

// HandleUpdateHours  PUT /api/volunteer-applications/{id}/update-hours {hours}
func (h *ApplicationHandler) HandleUpdateHours(w http.ResponseWriter, r *http.Request) {
	h.setHours(w, r, h.apps.UpdateHours)
}

type hoursSetter func(ctx context.Context, p auth.Principal, id string, hours int) (*model.Application, error)

func (h *ApplicationHandler) setHours(w http.ResponseWriter, r *http.Request, fn hoursSetter) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req hoursRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Hours == nil {
		writeError(w, h.logger, apperror.ValidationFailed("hours", "hours is required"))
		return
	}
	a, err := fn(r.Context(), p, pathID(r), *req.Hours)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleHours  GET /api/volunteer-applications/{id}/hours
func (h *ApplicationHandler) HandleHours(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	a, err := h.apps.Hours(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete  DELETE /api/volunteer-applications/{id}
func (h *ApplicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.apps.Delete(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "application deleted")
}
