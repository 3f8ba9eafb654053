package api

import (
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/models"
	"github.com/tomokana225/schedule-planning/internal/planner"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest = assistant.ChatRequest

// ChatResponse is the body of a successful POST /api/chat.
type ChatResponse = assistant.Reply

// ConfigResponse exposes the public provider settings.
type ConfigResponse struct {
	ProviderClientID string `json:"providerClientId" example:"1234.apps.googleusercontent.com"`
	ProviderAPIKey   string `json:"providerApiKey"`
}

// AddEventRequest is the add-event form.
type AddEventRequest = planner.AddEventForm

// EventListResponse wraps event listings.
type EventListResponse struct {
	Events []models.Event `json:"events" validate:"required"`
	Total  int            `json:"total" example:"4" validate:"required"`
}

// TurnRequest is the body of POST /api/assistant/turns. ReferenceDate is a
// YYYY-MM-DD day or an ISO 8601 date-time; empty means now.
type TurnRequest struct {
	Message       string `json:"message" example:"When can I study for an hour?" validate:"required"`
	ReferenceDate string `json:"referenceDate,omitempty" example:"2026-10-16"`
}

// TranscriptResponse wraps the chat transcript.
type TranscriptResponse struct {
	Messages []models.ChatMessage `json:"messages" validate:"required"`
}
