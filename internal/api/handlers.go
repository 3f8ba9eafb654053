package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *planner.Service
	asker  assistant.Asker
	public ConfigResponse
}

// NewHandler creates a new Handler. asker serves the stateless chat route.
func NewHandler(svc *planner.Service, asker assistant.Asker, public ConfigResponse) *Handler {
	return &Handler{svc: svc, asker: asker, public: public}
}

// dayParam reads a YYYY-MM-DD query parameter, defaulting to today.
func (h *Handler) dayParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return h.svc.Today(), nil
	}
	return dateutil.ParseDate(v, h.svc.Location())
}

// Chat handles POST /api/chat.
//
//	@Summary		Ask the assistant without touching the calendar
//	@Tags			assistant
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ChatRequest	true	"Utterance with context"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("message is required"))
		return
	}
	if req.CurrentDate.IsZero() {
		req.CurrentDate = time.Now().In(h.svc.Location())
	}

	reply, err := h.asker.Ask(r.Context(), req.Turn())
	if err != nil {
		writeError(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Config handles GET /api/config.
func (h *Handler) Config(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.public)
}

// ListEvents handles GET /api/events.
//
//	@Summary		List events, optionally for one day
//	@Tags			events
//	@Produce		json
//	@Param			date	query		string	false	"Day (YYYY-MM-DD)"
//	@Success		200		{object}	EventListResponse
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var resp EventListResponse
	if v := r.URL.Query().Get("date"); v != "" {
		day, err := dateutil.ParseDate(v, h.svc.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		resp.Events, err = h.svc.EventsOn(r.Context(), day)
		if err != nil {
			writeError(w, "list events", err)
			return
		}
	} else {
		events, err := h.svc.Events(r.Context())
		if err != nil {
			writeError(w, "list events", err)
			return
		}
		resp.Events = events
	}
	resp.Total = len(resp.Events)
	writeJSONTagged(w, r, resp)
}

// CreateEvent handles POST /api/events.
//
//	@Summary		Add an event from the form
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddEventRequest	true	"Form fields"
//	@Success		201		{object}	models.Event
//	@Failure		400		{object}	errResponse
//	@Router			/events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var form AddEventRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ev, err := h.svc.AddEvent(r.Context(), form)
	if err != nil {
		writeError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// GetEvent handles GET /api/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// NewEventForm handles GET /api/events/new and returns the prefilled form.
func (h *Handler) NewEventForm(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayParam(r, "date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, planner.NewAddEventForm(day))
}

// Day handles GET /api/calendar/day.
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayParam(r, "date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	view, err := h.svc.Day(r.Context(), day)
	if err != nil {
		writeError(w, "day view", err)
		return
	}
	writeJSONTagged(w, r, view)
}

// Month handles GET /api/calendar/month.
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	today := h.svc.Today()
	year, month := today.Year(), today.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		var err error
		year, month, err = dateutil.ParseMonth(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
	}
	view, err := h.svc.Month(r.Context(), year, month)
	if err != nil {
		writeError(w, "month view", err)
		return
	}
	writeJSONTagged(w, r, view)
}

// Sync handles POST /api/sync.
//
//	@Summary		Replace external events with a fresh copy
//	@Tags			sync
//	@Produce		json
//	@Success		200		{object}	planner.SyncResult
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Sync(r.Context())
	if err != nil {
		writeError(w, "sync", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Transcript handles GET /api/assistant/transcript.
func (h *Handler) Transcript(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TranscriptResponse{Messages: h.svc.Transcript()})
}

// Turn handles POST /api/assistant/turns.
//
//	@Summary		Run an assistant turn and apply its tool calls
//	@Tags			assistant
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TurnRequest	true	"Utterance"
//	@Success		200		{object}	planner.ChatResult
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/assistant/turns [post]
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var ref time.Time
	if req.ReferenceDate != "" {
		var err error
		ref, err = dateutil.ParseDate(req.ReferenceDate, h.svc.Location())
		if err != nil {
			ref, err = dateutil.ParseISO(req.ReferenceDate, h.svc.Location())
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("referenceDate must be YYYY-MM-DD or ISO 8601"))
			return
		}
	}

	res, err := h.svc.Chat(r.Context(), req.Message, ref)
	if err != nil {
		writeError(w, "assistant turn", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		writeError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
