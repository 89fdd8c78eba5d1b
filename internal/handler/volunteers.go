package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

type VolunteerHandler struct {
	vols      *service.VolunteerService
	maxUpload int64
	logger    *slog.Logger
}

func NewVolunteerHandler(vols *service.VolunteerService, maxUpload int64, logger *slog.Logger) *VolunteerHandler {
	return &VolunteerHandler{vols: vols, maxUpload: maxUpload, logger: logger}
}

// HandleList  GET /api/volunteers
func (h *VolunteerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	vols, err := h.vols.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vols)
}

// HandleMe  GET /api/volunteers/me
func (h *VolunteerHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	v, err := h.vols.Get(r.Context(), p.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleGet  GET /api/volunteers/{id}, where id is the user id.
func (h *VolunteerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.vols.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleUpdateProfile accepts either a JSON body or a multipart form with
// skills, availability and an optional "resume" file.
//
// HTTP: PUT /api/volunteers/update-profile
func (h *VolunteerHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var (
		in     service.VolunteerUpdate
		resume io.Reader
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.maxUpload); err != nil {
			writeError(w, h.logger, err)
			return
		}
		if vs, ok := r.MultipartForm.Value["skills"]; ok && len(vs) > 0 {
			in.Skills = &vs[0]
		}
		if vs, ok := r.MultipartForm.Value["availability"]; ok && len(vs) > 0 {
			in.Availability = &vs[0]
		}
		f, found, err := formFile(r, "resume")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if found {
			defer f.Close()
			resume = f
		}
	} else if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	v, err := h.vols.UpdateProfile(r.Context(), p.ID, in, resume)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleUploadResume  POST /api/volunteers/upload-resume (multipart "resume")
func (h *VolunteerHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	f, err := requireFile(w, r, "resume", h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer f.Close()

	v, err := h.vols.UploadResume(r.Context(), p.ID, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDeleteResume  DELETE /api/volunteers/delete-resume
func (h *VolunteerHandler) HandleDeleteResume(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.vols.DeleteResume(r.Context(), p.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "resume deleted")
}
