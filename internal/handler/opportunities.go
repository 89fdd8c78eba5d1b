package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

// OpportunityHandler serves /api/volunteer-opportunities, including the
// per-opportunity application routes.
type OpportunityHandler struct {
	opps      *service.OpportunityService
	apps      *service.ApplicationService
	maxUpload int64
	logger    *slog.Logger
}

func NewOpportunityHandler(opps *service.OpportunityService, apps *service.ApplicationService, maxUpload int64, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{opps: opps, apps: apps, maxUpload: maxUpload, logger: logger}
}

func (h *OpportunityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := feedQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	opps, err := h.opps.List(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

func (h *OpportunityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	o, err := h.opps.Get(r.Context(), viewer(r), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OpportunityHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	q, err := feedQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	opps, err := h.opps.Mine(r.Context(), p, q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

func (h *OpportunityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in service.OpportunityInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	o, err := h.opps.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OpportunityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in service.OpportunityUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	o, err := h.opps.Update(r.Context(), p, pathID(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OpportunityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.opps.Delete(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "opportunity deleted")
}

// HandleUploadImage  POST /api/volunteer-opportunities/{id}/upload-image (multipart "image")
func (h *OpportunityHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	f, err := requireFile(w, r, "image", h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer f.Close()

	o, err := h.opps.UploadImage(r.Context(), p, pathID(r), f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleApply  POST /api/volunteer-opportunities/{id}/apply
func (h *OpportunityHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	a, err := h.apps.Apply(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleApplicants  GET /api/volunteer-opportunities/{id}/applicants
func (h *OpportunityHandler) HandleApplicants(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	applicants, err := h.apps.Applicants(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, applicants)
}

// HandleHours  GET /api/volunteer-opportunities/{id}/hours
func (h *OpportunityHandler) HandleHours(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	report, err := h.apps.HoursReport(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
