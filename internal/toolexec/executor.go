package toolexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// toolTypes are the categories the model may choose. Anything else becomes
// ai-suggested.
var toolTypes = map[string]models.EventType{
	string(models.TypeWork):     models.TypeWork,
	string(models.TypePersonal): models.TypePersonal,
	string(models.TypeMeeting):  models.TypeMeeting,
}

// Outcome is the result of one tool call.
type Outcome struct {
	Call    assistant.ToolCall
	Event   *models.Event
	Err     error
	Ignored bool
}

// Result lists one outcome per call, in call order.
type Result struct {
	Outcomes []Outcome
}

// Created returns the events that were committed, in call order.
func (r Result) Created() []models.Event {
	var out []models.Event
	for _, o := range r.Outcomes {
		if o.Event != nil {
			out = append(out, *o.Event)
		}
	}
	return out
}

// Executor validates tool calls and commits the valid ones.
type Executor struct {
	store  eventstore.Store
	loc    *time.Location
	newID  func() string
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLocation sets the zone used for ISO values without an offset.
func WithLocation(loc *time.Location) Option {
	return func(x *Executor) { x.loc = loc }
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(x *Executor) { x.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Executor) { x.logger = l }
}

// New returns an Executor writing to store.
func New(store eventstore.Store, opts ...Option) *Executor {
	x := &Executor{
		store:  store,
		loc:    time.Local,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Build validates an AddEvent call and synthesizes the local event it asks
// for. The event is not stored.
func (x *Executor) Build(c AddEvent) (models.Event, error) {
	if c.Unparsed != "" {
		return models.Event{}, fmt.Errorf("%w: arguments are not a JSON object", apperr.ErrMalformedToolCall)
	}
	if len(c.NonString) > 0 {
		return models.Event{}, fmt.Errorf("%w: non-string arguments %v", apperr.ErrMalformedToolCall, c.NonString)
	}
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.StartISO, validation.Required),
		validation.Field(&c.EndISO, validation.Required),
	); err != nil {
		return models.Event{}, fmt.Errorf("%w: %v", apperr.ErrMalformedToolCall, err)
	}

	start, err := dateutil.ParseISO(c.StartISO, x.loc)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w: startIso: %v", apperr.ErrMalformedToolCall, err)
	}
	end, err := dateutil.ParseISO(c.EndISO, x.loc)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w: endIso: %v", apperr.ErrMalformedToolCall, err)
	}
	if !end.After(start) {
		return models.Event{}, fmt.Errorf("%q: %w", c.Title, apperr.ErrInvalidTimeRange)
	}

	typ, ok := toolTypes[c.Type]
	if !ok {
		typ = models.TypeAISuggested
	}

	return models.Event{
		ID:          x.newID(),
		Title:       c.Title,
		Start:       start,
		End:         end,
		Type:        typ,
		Description: c.Description,
		Source:      models.SourceLocal,
	}, nil
}

// Apply processes calls in order. Valid add_calendar_event calls are committed
// in a single atomic append; invalid ones are dropped and unknown tools are
// ignored. Neither stops the remaining calls. The returned error is non-nil
// only if the commit itself failed, in which case nothing was stored.
func (x *Executor) Apply(ctx context.Context, calls []assistant.ToolCall) (Result, error) {
	res := Result{Outcomes: make([]Outcome, len(calls))}
	var staged []models.Event
	var stagedAt []int

	for i, tc := range calls {
		res.Outcomes[i].Call = tc
		switch c := Decode(tc).(type) {
		case AddEvent:
			ev, err := x.Build(c)
			if err != nil {
				x.logger.Warn("rejected tool call",
					slog.String("tool", tc.Name),
					slog.Int("index", i),
					slog.String("error", err.Error()))
				res.Outcomes[i].Err = err
				continue
			}
			staged = append(staged, ev)
			stagedAt = append(stagedAt, i)
		case Unknown:
			x.logger.Warn("ignoring unknown tool", slog.String("tool", c.Name), slog.Int("index", i))
			res.Outcomes[i].Ignored = true
		}
	}

	if len(staged) == 0 {
		return res, nil
	}
	if err := x.store.Append(ctx, staged...); err != nil {
		for _, i := range stagedAt {
			res.Outcomes[i].Err = err
		}
		return res, fmt.Errorf("commit tool calls: %w", err)
	}
	for n, i := range stagedAt {
		ev := staged[n]
		res.Outcomes[i].Event = &ev
	}
	return res, nil
}
