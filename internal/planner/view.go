package planner

import (
	"context"
	"time"

	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// MaxMonthCellEvents is how many events a month cell lists before summarizing.
const MaxMonthCellEvents = 4

// DayEvent is an event placed on the day timeline.
type DayEvent struct {
	models.Event
	Color       string `json:"color"`
	TimeRange   string `json:"timeRange"`
	StartMinute int    `json:"startMinute"`
	Minutes     int    `json:"minutes"`
}

// DayView is the timeline of one day.
type DayView struct {
	Date    string     `json:"date"`
	Label   string     `json:"label"`
	IsToday bool       `json:"isToday"`
	NowLine *int       `json:"nowMinute,omitempty"`
	Events  []DayEvent `json:"events"`
}

// Day returns the timeline for date's day.
func (s *Service) Day(ctx context.Context, date time.Time) (DayView, error) {
	date = dateutil.StartOfDay(date.In(s.loc))
	events, err := s.EventsOn(ctx, date)
	if err != nil {
		return DayView{}, err
	}

	now := s.now().In(s.loc)
	v := DayView{
		Date:    date.Format(dateutil.DateLayout),
		Label:   dateutil.FormatDate(date, s.locale),
		IsToday: dateutil.SameDay(now, date),
		Events:  make([]DayEvent, 0, len(events)),
	}
	if v.IsToday {
		m := now.Hour()*60 + now.Minute()
		v.NowLine = &m
	}
	for _, e := range events {
		start := e.Start.In(s.loc)
		v.Events = append(v.Events, DayEvent{
			Event:       e,
			Color:       e.Type.Color(),
			TimeRange:   dateutil.FormatTime(start) + " - " + dateutil.FormatTime(e.End.In(s.loc)),
			StartMinute: start.Hour()*60 + start.Minute(),
			Minutes:     int(e.Duration() / time.Minute),
		})
	}
	return v, nil
}

// MonthDay is one cell of the month grid.
type MonthDay struct {
	Date       string         `json:"date"`
	Day        int            `json:"day"`
	IsToday    bool           `json:"isToday"`
	Events     []models.Event `json:"events"`
	MoreEvents int            `json:"moreEvents"`
}

// MonthView is a Sunday-first month grid.
type MonthView struct {
	Month         string     `json:"month"`
	Label         string     `json:"label"`
	Weekdays      []string   `json:"weekdays"`
	LeadingBlanks int        `json:"leadingBlanks"`
	Days          []MonthDay `json:"days"`
}

// Month returns the grid for the given month.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (MonthView, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return MonthView{}, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	now := s.now().In(s.loc)
	v := MonthView{
		Month:         first.Format(dateutil.MonthLayout),
		Label:         dateutil.FormatMonth(first, s.locale),
		Weekdays:      dateutil.WeekdayHeaders(s.locale),
		LeadingBlanks: dateutil.LeadingBlanks(year, month, s.loc),
	}
	for _, day := range dateutil.DaysInMonth(year, month, s.loc) {
		dayEvents := filterDay(events, day)
		cell := MonthDay{
			Date:    day.Format(dateutil.DateLayout),
			Day:     day.Day(),
			IsToday: dateutil.SameDay(now, day),
			Events:  dayEvents,
		}
		if len(dayEvents) > MaxMonthCellEvents {
			cell.Events = dayEvents[:MaxMonthCellEvents]
			cell.MoreEvents = len(dayEvents) - MaxMonthCellEvents
		}
		v.Days = append(v.Days, cell)
	}
	return v, nil
}
