package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

type NGOHandler struct {
	ngos   *service.NGOService
	logger *slog.Logger
}

func NewNGOHandler(ngos *service.NGOService, logger *slog.Logger) *NGOHandler {
	return &NGOHandler{ngos: ngos, logger: logger}
}

// HandleList  GET /api/ngos
func (h *NGOHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ngos, err := h.ngos.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngos)
}

// HandleListApproved  GET /api/ngos/approved
func (h *NGOHandler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	ngos, err := h.ngos.ListApproved(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngos)
}

// HandleMe  GET /api/ngos/me
func (h *NGOHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	ngo, err := h.ngos.Mine(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngo)
}

// HandleGet  GET /api/ngos/{id}
func (h *NGOHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ngo, err := h.ngos.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngo)
}

// HandleUpdate  PUT /api/ngos/update-profile {name?, description?}
func (h *NGOHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in service.NGOUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ngo, err := h.ngos.Update(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ngo)
}

// HandleDelete  DELETE /api/ngos/{id}
func (h *NGOHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.ngos.Delete(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "NGO deleted")
}
