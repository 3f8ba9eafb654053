// Package assistant talks to the hosted language model on behalf of the
// planner. It builds the request from a chat turn and returns the model's
// text together with any tool calls, in the order the model produced them.
// It never mutates the calendar.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/llm"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// DefaultTemperature matches the sampling temperature the assistant was tuned with.
const DefaultTemperature = 0.7

// Turn is everything the model sees for one user utterance.
type Turn struct {
	Utterance     string
	History       []models.ChatMessage
	Schedule      []models.ScheduleItem
	ReferenceDate time.Time
}

// ToolCall is a structured action request emitted by the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Reply is the model's answer to a turn. Text may be empty.
type Reply struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"functionCalls"`
}

// Asker is implemented by every way of reaching the model.
type Asker interface {
	Ask(ctx context.Context, turn Turn) (Reply, error)
}

var (
	_ Asker = (*Bridge)(nil)
	_ Asker = (*HTTPBridge)(nil)
)

// Bridge asks a language model directly.
type Bridge struct {
	gen         llm.Generator
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithModel overrides the provider's default model per call.
func WithModel(model string) BridgeOption {
	return func(b *Bridge) { b.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) BridgeOption {
	return func(b *Bridge) { b.temperature = t }
}

// WithTimeout bounds each model call. Zero means no extra bound.
func WithTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) { b.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge returns a Bridge over gen. A nil gen yields a bridge that reports
// every turn as unavailable.
func NewBridge(gen llm.Generator, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		gen:         gen,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configured reports whether a model backend is attached.
func (b *Bridge) Configured() bool {
	return b.gen != nil
}

// Ask sends the turn to the model. Any failure to obtain a usable response
// is reported as apperr.ErrBridgeUnavailable.
func (b *Bridge) Ask(ctx context.Context, turn Turn) (Reply, error) {
	if strings.TrimSpace(turn.Utterance) == "" {
		return Reply{}, fmt.Errorf("%w: empty utterance", apperr.ErrValidation)
	}
	if b.gen == nil {
		return Reply{}, fmt.Errorf("%w: %w", apperr.ErrBridgeUnavailable, llm.ErrNotConfigured)
	}

	messages, err := Messages(turn)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: build request: %w", apperr.ErrBridgeUnavailable, err)
	}

	opts := []llms.CallOption{
		llms.WithTools([]llms.Tool{AddEventTool()}),
		llms.WithTemperature(b.temperature),
	}
	if b.model != "" {
		opts = append(opts, llms.WithModel(b.model))
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	resp, err := b.gen.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", apperr.ErrBridgeUnavailable, err)
	}
	reply, err := fromResponse(resp)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", apperr.ErrBridgeUnavailable, err)
	}

	b.logger.Debug("assistant replied",
		slog.Int("text_len", len(reply.Text)),
		slog.Int("tool_calls", len(reply.ToolCalls)))
	return reply, nil
}

// fromResponse flattens every choice into one reply. Some providers return
// text and tool calls as separate choices.
func fromResponse(resp *llms.ContentResponse) (Reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, errors.New("empty response from model")
	}
	reply := Reply{ToolCalls: []ToolCall{}}
	var text strings.Builder
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		text.WriteString(choice.Content)
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				Name: tc.FunctionCall.Name,
				Args: parseToolArgs(tc.FunctionCall.Arguments),
			})
		}
	}
	reply.Text = text.String()
	return reply, nil
}
