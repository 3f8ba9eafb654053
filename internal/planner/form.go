package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// Form defaults, matching a freshly opened add-event form.
const (
	DefaultFormStart = "09:00"
	DefaultFormEnd   = "10:00"
)

// AddEventForm is the add-event form as submitted.
type AddEventForm struct {
	Title    string `json:"title" yaml:"title"`
	Date     string `json:"date" yaml:"date"`
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end" yaml:"end"`
	Category string `json:"category" yaml:"type"`
	Note     string `json:"note" yaml:"description"`
}

// NewAddEventForm returns the form prefilled for date.
func NewAddEventForm(date time.Time) AddEventForm {
	return AddEventForm{
		Date:     date.Format(dateutil.DateLayout),
		Start:    DefaultFormStart,
		End:      DefaultFormEnd,
		Category: string(models.TypeWork),
	}
}

func byParsing(parse func(string) error) validation.RuleFunc {
	return func(v any) error {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		return parse(s)
	}
}

// Validate checks every field. End must be after start on the same date.
func (f *AddEventForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = string(models.TypeWork)
	}

	err := validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Date, validation.Required, validation.By(byParsing(func(s string) error {
			_, err := dateutil.ParseDate(s, time.UTC)
			return err
		}))),
		validation.Field(&f.Start, validation.Required, validation.By(byParsing(func(s string) error {
			_, _, err := dateutil.ParseClock(s)
			return err
		}))),
		validation.Field(&f.End, validation.Required, validation.By(byParsing(func(s string) error {
			_, _, err := dateutil.ParseClock(s)
			return err
		}))),
		validation.Field(&f.Category, validation.In(
			string(models.TypeWork), string(models.TypePersonal), string(models.TypeMeeting))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	sh, sm, _ := dateutil.ParseClock(f.Start)
	eh, em, _ := dateutil.ParseClock(f.End)
	if eh*60+em <= sh*60+sm {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, apperr.ErrInvalidTimeRange)
	}
	return nil
}

// event builds the local event described by a valid form.
func (f AddEventForm) event(id string, loc *time.Location) (models.Event, error) {
	day, err := dateutil.ParseDate(f.Date, loc)
	if err != nil {
		return models.Event{}, err
	}
	sh, sm, err := dateutil.ParseClock(f.Start)
	if err != nil {
		return models.Event{}, err
	}
	eh, em, err := dateutil.ParseClock(f.End)
	if err != nil {
		return models.Event{}, err
	}
	e := models.Event{
		ID:          id,
		Title:       f.Title,
		Start:       dateutil.Combine(day, sh, sm),
		End:         dateutil.Combine(day, eh, em),
		Type:        models.EventType(f.Category),
		Description: f.Note,
		Source:      models.SourceLocal,
	}
	if !e.End.After(e.Start) {
		return models.Event{}, fmt.Errorf("%w: %w", apperr.ErrValidation, apperr.ErrInvalidTimeRange)
	}
	return e, nil
}

// AddEvent validates the form and stores the event it describes.
func (s *Service) AddEvent(ctx context.Context, form AddEventForm) (models.Event, error) {
	if err := form.Validate(); err != nil {
		return models.Event{}, err
	}
	e, err := form.event(s.newID(), s.loc)
	if err != nil {
		if !errors.Is(err, apperr.ErrValidation) {
			err = fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		return models.Event{}, err
	}
	if err := s.store.Append(ctx, e); err != nil {
		return models.Event{}, fmt.Errorf("add event: %w", err)
	}
	s.committed("form", 1)
	return e, nil
}
