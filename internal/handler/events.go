package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/volunteer-connect/internal/service"
)

// EventHandler serves events and their RSVPs.
type EventHandler struct {
	events    *service.EventService
	attendees *service.AttendeeService
	maxUpload int64
	logger    *slog.Logger
}

func NewEventHandler(events *service.EventService, attendees *service.AttendeeService, maxUpload int64, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, attendees: attendees, maxUpload: maxUpload, logger: logger}
}

// feedQuery reads ?search=&location=&sortBy=&order=&limit=&offset=.
func feedQuery(r *http.Request) (service.FeedQuery, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return service.FeedQuery{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return service.FeedQuery{}, err
	}
	q := r.URL.Query()
	return service.FeedQuery{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// HandleList  GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := feedQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	events, err := h.events.List(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet  GET /api/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Get(r.Context(), viewer(r), pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleMine  GET /api/events/ngo/mine
func (h *EventHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	q, err := feedQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	events, err := h.events.Mine(r.Context(), p, q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate  POST /api/events
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	e, err := h.events.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleUpdate  PUT /api/events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in service.EventUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	e, err := h.events.Update(r.Context(), p, pathID(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete  DELETE /api/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "event deleted")
}

// HandleUploadPoster  POST /api/events/{id}/upload-poster (multipart "posterImage")
func (h *EventHandler) HandleUploadPoster(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	f, err := requireFile(w, r, "posterImage", h.maxUpload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer f.Close()

	e, err := h.events.UploadPoster(r.Context(), p, pathID(r), f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleRSVP  POST /api/events/{id}/rsvp
func (h *EventHandler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	a, err := h.attendees.RSVP(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleCancelRSVP  DELETE /api/events/{id}/rsvp
func (h *EventHandler) HandleCancelRSVP(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.attendees.Cancel(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "RSVP cancelled")
}

// HandleAttendees  GET /api/events/{id}/attendees
func (h *EventHandler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	attendees, err := h.attendees.ForEvent(r.Context(), p, pathID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

// HandleRemoveAttendee  DELETE /api/event-attendees/{id}
func (h *EventHandler) HandleRemoveAttendee(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.attendees.Remove(r.Context(), p, pathID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "attendee removed")
}

// HandleMyRSVPs  GET /api/event-attendees/mine
func (h *EventHandler) HandleMyRSVPs(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	rsvps, err := h.attendees.Mine(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rsvps)
}
