// Package planner coordinates the calendar session: the event store, the
// assistant, the tool executor, external sync and the chat transcript.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/assistant"
	"github.com/tomokana225/schedule-planning/internal/calsync"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/eventstore"
	"github.com/tomokana225/schedule-planning/internal/models"
	"github.com/tomokana225/schedule-planning/internal/opstate"
	"github.com/tomokana225/schedule-planning/internal/sse"
	"github.com/tomokana225/schedule-planning/internal/toolexec"
)

// Operation names.
const (
	OpSync = "sync"
	OpChat = "chat"
)

// Notifier receives change notifications. *sse.Broker implements it.
type Notifier interface {
	Publish(event sse.Event)
	PublishStoreChanged(change sse.StoreChange)
}

type nopNotifier struct{}

func (nopNotifier) Publish(sse.Event)                   {}
func (nopNotifier) PublishStoreChanged(sse.StoreChange) {}

// Service is the single owner of a planning session.
type Service struct {
	store    eventstore.Store
	asker    assistant.Asker
	exec     *toolexec.Executor
	fetcher  calsync.Fetcher
	notifier Notifier

	loc    *time.Location
	locale dateutil.Locale
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	syncGate *opstate.Gate
	chatGate *opstate.Gate

	mu         sync.RWMutex
	transcript []models.ChatMessage

	revision  atomic.Uint64
	connected atomic.Bool
	realSync  bool
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where change notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLocation sets the display time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithLocale sets the language of labels and transcript messages.
func WithLocale(l dateutil.Locale) Option {
	return func(s *Service) { s.locale = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces uuid generation for events and messages.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRealSync marks the fetcher as talking to a real provider. It only
// affects Status.
func WithRealSync(real bool) Option {
	return func(s *Service) { s.realSync = real }
}

// New builds a Service. The transcript starts with the welcome message.
func New(store eventstore.Store, asker assistant.Asker, fetcher calsync.Fetcher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		asker:    asker,
		fetcher:  fetcher,
		notifier: nopNotifier{},
		loc:      time.Local,
		locale:   dateutil.LocaleJapanese,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.exec = toolexec.New(store,
		toolexec.WithLocation(s.loc),
		toolexec.WithIDGenerator(s.newID),
		toolexec.WithLogger(s.logger))

	onChange := func(snap opstate.Snapshot) {
		s.notifier.Publish(sse.Event{Type: sse.TypeOperationChanged, Data: snap})
	}
	s.syncGate = opstate.NewGate(OpSync, onChange)
	s.chatGate = opstate.NewGate(OpChat, onChange)

	s.transcript = []models.ChatMessage{s.message(models.RoleAssistant, messagesFor(s.locale).welcome)}
	return s
}

// Location returns the display time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Locale returns the display locale.
func (s *Service) Locale() dateutil.Locale {
	return s.locale
}

// Today returns midnight of the current day in the display zone.
func (s *Service) Today() time.Time {
	return dateutil.StartOfDay(s.now().In(s.loc))
}

// Revision increases with every committed mutation.
func (s *Service) Revision() uint64 {
	return s.revision.Load()
}

// Events returns all events in insertion order.
func (s *Service) Events(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Event returns the event with id.
func (s *Service) Event(ctx context.Context, id string) (models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return models.Event{}, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Event{}, fmt.Errorf("event %s: %w", id, apperr.ErrNotFound)
}

// EventsOn returns the events starting on date's day.
func (s *Service) EventsOn(ctx context.Context, date time.Time) ([]models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return filterDay(events, date.In(s.loc)), nil
}

func filterDay(events []models.Event, day time.Time) []models.Event {
	out := make([]models.Event, 0)
	for _, e := range events {
		if dateutil.SameDay(e.Start.In(day.Location()), day) {
			out = append(out, e)
		}
	}
	return out
}

// Transcript returns a copy of the chat transcript.
func (s *Service) Transcript() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Service) appendMessage(m models.ChatMessage) {
	s.mu.Lock()
	s.transcript = append(s.transcript, m)
	s.mu.Unlock()
}

func (s *Service) message(role models.Role, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Text:      text,
		CreatedAt: s.now(),
	}
}

// committed bumps the revision and announces the change.
func (s *Service) committed(reason string, count int) uint64 {
	rev := s.revision.Add(1)
	s.notifier.PublishStoreChanged(sse.StoreChange{Revision: rev, Reason: reason, Count: count})
	s.logger.Info("calendar changed",
		slog.String("reason", reason),
		slog.Int("count", count),
		slog.Uint64("revision", rev))
	return rev
}

// Status summarizes the session.
type Status struct {
	Connected           bool               `json:"connected"`
	Provider            string             `json:"provider"`
	AssistantConfigured bool               `json:"assistantConfigured"`
	Revision            uint64             `json:"revision"`
	EventCount          int                `json:"eventCount"`
	Operations          []opstate.Snapshot `json:"operations"`
}

// Status returns the current session summary.
func (s *Service) Status(ctx context.Context) (Status, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return Status{}, err
	}
	provider := "simulated"
	if s.realSync {
		provider = "google"
	}
	configured := true
	if b, ok := s.asker.(interface{ Configured() bool }); ok {
		configured = b.Configured()
	}
	return Status{
		Connected:           s.connected.Load(),
		Provider:            provider,
		AssistantConfigured: configured,
		Revision:            s.Revision(),
		EventCount:          len(events),
		Operations:          []opstate.Snapshot{s.syncGate.Snapshot(), s.chatGate.Snapshot()},
	}, nil
}
