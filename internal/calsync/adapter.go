package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// Fetcher returns the current set of external events.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.Event, error)
}

var _ Fetcher = (*Adapter)(nil)

// Adapter fetches external events for a Session.
type Adapter struct {
	session  Session
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	endpoint string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithEndpoint overrides the provider API base URL.
func WithEndpoint(url string) Option {
	return func(a *Adapter) { a.endpoint = url }
}

// New returns an Adapter for session.
func New(session Session, opts ...Option) *Adapter {
	a := &Adapter{
		session: session.WithDefaults(),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Session returns the adapter's session.
func (a *Adapter) Session() Session {
	return a.session
}

// Fetch lists upcoming events from the provider, or the simulated set when no
// client id is configured. Every returned event is external with End after
// Start. Failures wrap apperr.ErrSyncFailed.
func (a *Adapter) Fetch(ctx context.Context) ([]models.Event, error) {
	if !a.session.Real() {
		return a.simulate(ctx)
	}
	events, err := a.fetchRemote(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrSyncFailed, err)
	}
	return events, nil
}

func (a *Adapter) fetchRemote(ctx context.Context) ([]models.Event, error) {
	tok, err := a.session.loadToken()
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(a.session.OAuthConfig().Client(ctx, tok)),
	}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	list, err := svc.Events.List("primary").
		Context(ctx).
		TimeMin(a.now().Format(time.RFC3339)).
		ShowDeleted(false).
		SingleEvents(true).
		MaxResults(a.session.PageSize).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]models.Event, 0, len(list.Items))
	for _, item := range list.Items {
		e, err := a.newEvent(item)
		if err != nil {
			a.logger.Warn("skipping external event",
				slog.String("provider_id", item.Id),
				slog.String("error", err.Error()))
			continue
		}
		events = append(events, e)
	}
	a.logger.Info("fetched external events",
		slog.Int("received", len(list.Items)),
		slog.Int("kept", len(events)))
	return events, nil
}

func (a *Adapter) newEvent(item *calendar.Event) (models.Event, error) {
	start, err := a.eventTime(item.Start)
	if err != nil {
		return models.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := a.eventTime(item.End)
	if err != nil {
		return models.Event{}, fmt.Errorf("end: %w", err)
	}
	if !end.After(start) {
		return models.Event{}, apperr.ErrInvalidTimeRange
	}

	id := item.Id
	if id == "" {
		id = a.newID()
	}
	title := item.Summary
	if title == "" {
		title = "No Title"
	}
	return models.Event{
		ID:          id,
		Title:       title,
		Start:       start,
		End:         end,
		Type:        models.TypeExternal,
		Description: item.Description,
		Source:      models.SourceExternal,
		Location:    item.Location,
	}, nil
}

// eventTime reads a timed value or, for all-day events, the date at local
// midnight.
func (a *Adapter) eventTime(t *calendar.EventDateTime) (time.Time, error) {
	loc := a.session.Location
	switch {
	case t == nil:
		return time.Time{}, fmt.Errorf("missing time")
	case t.DateTime != "":
		v, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return v.In(loc), nil
	case t.Date != "":
		return time.ParseInLocation(time.DateOnly, t.Date, loc)
	default:
		return time.Time{}, fmt.Errorf("missing time")
	}
}
