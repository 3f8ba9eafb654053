package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /stream inside the auth group.
func NewRouter(svc *planner.Service, asker assistant.Asker, public ConfigResponse, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, asker, public)

	r := chi.NewRouter()

	// Public provider settings, as the browser needs them before login.
	r.Get("/config", h.Config)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Post("/chat", h.Chat)

		// Events.
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/new", h.NewEventForm)
		r.Get("/events/{id}", h.GetEvent)

		// Views.
		r.Get("/calendar/day", h.Day)
		r.Get("/calendar/month", h.Month)

		r.Post("/sync", h.Sync)

		// Assistant session.
		r.Get("/assistant/transcript", h.Transcript)
		r.Post("/assistant/turns", h.Turn)

		r.Get("/status", h.Status)

		// SSE endpoint (protected by same auth middleware).
		if sseHandler != nil {
			r.Get("/stream", sseHandler.ServeHTTP)
		}
	})

	return r
}
