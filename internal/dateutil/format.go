package dateutil

import (
	"fmt"
	"time"
)

// Locale selects the rendering of dates in views.
type Locale string

const (
	LocaleJapanese Locale = "ja-JP"
	LocaleEnglish  Locale = "en-US"
)

var jaWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Valid reports whether the locale is supported.
func (l Locale) Valid() bool {
	return l == LocaleJapanese || l == LocaleEnglish
}

// FormatDate renders year, month, day and short weekday.
func FormatDate(t time.Time, l Locale) string {
	switch l {
	case LocaleEnglish:
		return t.Format("Mon, January 2, 2006")
	default:
		return fmt.Sprintf("%d年%d月%d日(%s)", t.Year(), int(t.Month()), t.Day(), jaWeekdays[t.Weekday()])
	}
}

// FormatMonth renders year and month for the month view header.
func FormatMonth(t time.Time, l Locale) string {
	switch l {
	case LocaleEnglish:
		return t.Format("January 2006")
	default:
		return fmt.Sprintf("%d年%d月", t.Year(), int(t.Month()))
	}
}

// FormatWeekday renders the long weekday name.
func FormatWeekday(t time.Time, l Locale) string {
	switch l {
	case LocaleEnglish:
		return t.Weekday().String()
	default:
		return jaWeekdays[t.Weekday()] + "曜日"
	}
}

// FormatTime renders a 24h HH:MM clock.
func FormatTime(t time.Time) string {
	return t.Format(ClockLayout)
}

// WeekdayHeaders returns the Sunday-first column headers of the month grid.
func WeekdayHeaders(l Locale) []string {
	out := make([]string, 7)
	for i := range out {
		if l == LocaleEnglish {
			out[i] = time.Weekday(i).String()[:3]
		} else {
			out[i] = jaWeekdays[i]
		}
	}
	return out
}
