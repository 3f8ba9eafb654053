// Package models defines the domain types for the planner.
package models

import "time"

// EventType classifies an event and selects its default styling.
type EventType string

const (
	TypeWork        EventType = "work"
	TypePersonal    EventType = "personal"
	TypeMeeting     EventType = "meeting"
	TypeAISuggested EventType = "ai-suggested"
	TypeExternal    EventType = "external"
)

// EventTypes lists every recognised event type.
var EventTypes = []EventType{TypeWork, TypePersonal, TypeMeeting, TypeAISuggested, TypeExternal}

// Valid reports whether t is one of the closed set of event types.
func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// Color returns the presentation class used for events of this type.
func (t EventType) Color() string {
	switch t {
	case TypeWork:
		return "bg-blue-100 text-blue-700 border-blue-200"
	case TypePersonal:
		return "bg-green-100 text-green-700 border-green-200"
	case TypeMeeting:
		return "bg-purple-100 text-purple-700 border-purple-200"
	case TypeAISuggested:
		return "bg-amber-100 text-amber-700 border-amber-200 dashed-border"
	case TypeExternal:
		return "bg-red-50 text-red-700 border-red-200"
	default:
		return ""
	}
}

// Source is the provenance tag of an event. External events are replaced
// wholesale on every successful sync.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceLocal || s == SourceExternal
}

// Event is a single calendar entry. End is always strictly after Start.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        EventType `json:"type"`
	Description string    `json:"description,omitempty"`
	Source      Source    `json:"source"`
	Location    string    `json:"location,omitempty"`
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ScheduleItem is the read-only projection of an event handed to the assistant.
type ScheduleItem struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  EventType `json:"type"`
}

// Schedule projects events into schedule items, preserving order.
func Schedule(events []Event) []ScheduleItem {
	out := make([]ScheduleItem, len(events))
	for i, e := range events {
		out[i] = ScheduleItem{Title: e.Title, Start: e.Start, End: e.End, Type: e.Type}
	}
	return out
}
