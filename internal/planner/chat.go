package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/models"
	"github.com/tomokana225/schedule-planning/internal/toolexec"
)

// ChatResult describes one completed assistant turn.
type ChatResult struct {
	User     models.ChatMessage `json:"user"`
	Reply    models.ChatMessage `json:"reply"`
	Created  []models.Event     `json:"created"`
	Rejected int                `json:"rejected"`
	Ignored  int                `json:"ignored"`
}

// Chat runs one assistant turn for utterance. referenceDate is the day the
// user is looking at; zero means now.
//
// A blank utterance is rejected with apperr.ErrValidation and changes nothing.
// If the assistant cannot be reached the apology message is recorded, no tool
// call is applied, and the error wraps apperr.ErrBridgeUnavailable.
func (s *Service) Chat(ctx context.Context, utterance string, referenceDate time.Time) (ChatResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return ChatResult{}, fmt.Errorf("%w: message is empty", apperr.ErrValidation)
	}
	ticket, err := s.chatGate.Begin()
	if err != nil {
		return ChatResult{}, err
	}

	res, err := s.chat(ctx, utterance, referenceDate)
	s.chatGate.Finish(ticket, err)
	return res, err
}

func (s *Service) chat(ctx context.Context, utterance string, referenceDate time.Time) (ChatResult, error) {
	msgs := messagesFor(s.locale)
	if referenceDate.IsZero() {
		referenceDate = s.now()
	}

	history := s.Transcript()
	res := ChatResult{User: s.message(models.RoleUser, utterance)}
	s.appendMessage(res.User)

	events, err := s.store.List(ctx)
	if err != nil {
		return s.failTurn(res, fmt.Errorf("%w: list events: %w", apperr.ErrBridgeUnavailable, err))
	}

	reply, err := s.asker.Ask(ctx, assistant.Turn{
		Utterance:     utterance,
		History:       history,
		Schedule:      models.Schedule(events),
		ReferenceDate: referenceDate.In(s.loc),
	})
	if err != nil {
		return s.failTurn(res, err)
	}

	applied, err := s.applyTools(ctx, reply.ToolCalls, "assistant")
	if err != nil {
		s.logger.Error("apply tool calls", slog.String("error", err.Error()))
	}
	for _, o := range applied.Outcomes {
		switch {
		case o.Ignored:
			res.Ignored++
		case o.Err != nil:
			res.Rejected++
		}
	}
	res.Created = applied.Created()

	text := reply.Text
	if strings.TrimSpace(text) == "" {
		text = msgs.acknowledged
	}
	var b strings.Builder
	b.WriteString(text)
	for _, e := range res.Created {
		b.WriteString("\n\n")
		b.WriteString(toolexec.Confirmation(e, s.locale))
	}
	res.Reply = s.message(models.RoleAssistant, b.String())
	s.appendMessage(res.Reply)
	return res, nil
}

func (s *Service) failTurn(res ChatResult, err error) (ChatResult, error) {
	s.logger.Warn("assistant turn failed", slog.String("error", err.Error()))
	res.Reply = s.message(models.RoleAssistant, messagesFor(s.locale).apology)
	s.appendMessage(res.Reply)
	return res, err
}

// ApplyToolCalls runs tool calls that did not come from a chat turn, such as
// those received by the tool server. Validation is identical to chat turns.
func (s *Service) ApplyToolCalls(ctx context.Context, calls []assistant.ToolCall) (toolexec.Result, error) {
	return s.applyTools(ctx, calls, "tool")
}

func (s *Service) applyTools(ctx context.Context, calls []assistant.ToolCall, reason string) (toolexec.Result, error) {
	res, err := s.exec.Apply(ctx, calls)
	if created := res.Created(); len(created) > 0 {
		s.committed(reason, len(created))
	}
	return res, err
}
