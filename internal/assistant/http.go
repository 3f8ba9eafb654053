package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// HistoryItem is one prior message on the wire.
type HistoryItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message       string                `json:"message"`
	History       []HistoryItem         `json:"history"`
	CurrentEvents []models.ScheduleItem `json:"currentEvents"`
	CurrentDate   time.Time             `json:"currentDate"`
}

// Turn converts the request into a bridge turn. Both "assistant" and "model"
// are accepted as the assistant role.
func (r ChatRequest) Turn() Turn {
	history := make([]models.ChatMessage, 0, len(r.History))
	for _, h := range r.History {
		role := models.RoleUser
		switch strings.ToLower(h.Role) {
		case "assistant", "model":
			role = models.RoleAssistant
		}
		history = append(history, models.ChatMessage{Role: role, Text: h.Text})
	}
	return Turn{
		Utterance:     r.Message,
		History:       history,
		Schedule:      r.CurrentEvents,
		ReferenceDate: r.CurrentDate,
	}
}

// NewChatRequest is the inverse of ChatRequest.Turn.
func NewChatRequest(turn Turn) ChatRequest {
	history := make([]HistoryItem, 0, len(turn.History))
	for _, m := range turn.History {
		history = append(history, HistoryItem{Role: string(m.Role), Text: m.Text})
	}
	schedule := turn.Schedule
	if schedule == nil {
		schedule = []models.ScheduleItem{}
	}
	return ChatRequest{
		Message:       turn.Utterance,
		History:       history,
		CurrentEvents: schedule,
		CurrentDate:   turn.ReferenceDate,
	}
}

// HTTPBridge reaches the model through a remote POST /api/chat endpoint.
type HTTPBridge struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPBridge returns a bridge posting to endpoint, the full URL of the chat
// route. token, if set, is sent as a Bearer credential. A nil client uses
// http.DefaultClient.
func NewHTTPBridge(endpoint, token string, client *http.Client) *HTTPBridge {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBridge{endpoint: endpoint, token: token, client: client}
}

// Ask implements Asker.
func (b *HTTPBridge) Ask(ctx context.Context, turn Turn) (Reply, error) {
	if strings.TrimSpace(turn.Utterance) == "" {
		return Reply{}, fmt.Errorf("%w: empty utterance", apperr.ErrValidation)
	}

	body, err := json.Marshal(NewChatRequest(turn))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: encode request: %w", apperr.ErrBridgeUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", apperr.ErrBridgeUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", apperr.ErrBridgeUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: read response: %w", apperr.ErrBridgeUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return Reply{}, fmt.Errorf("%w: status %d: %s", apperr.ErrBridgeUnavailable, resp.StatusCode, msg)
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("%w: decode response: %w", apperr.ErrBridgeUnavailable, err)
	}
	if reply.ToolCalls == nil {
		reply.ToolCalls = []ToolCall{}
	}
	return reply, nil
}
