// Package toolexec turns tool calls emitted by the assistant into calendar
// mutations.
package toolexec

import (
	"strings"

	"github.com/tomokana225/schedule-planning/internal/assistant"
)

// Call is a decoded tool call: AddEvent or Unknown.
type Call interface {
	ToolName() string
}

// AddEvent is a decoded add_calendar_event call. Fields that were present but
// not strings are listed in NonString. Unparsed holds argument text that was
// not a JSON object.
type AddEvent struct {
	Title       string
	StartISO    string
	EndISO      string
	Description string
	Type        string
	NonString   []string
	Unparsed    string
}

func (AddEvent) ToolName() string { return assistant.AddEventToolName }

// Unknown is any call to a tool the executor does not implement.
type Unknown struct {
	Name string
	Args map[string]any
}

func (u Unknown) ToolName() string { return u.Name }

// Decode maps a raw tool call to its variant.
func Decode(tc assistant.ToolCall) Call {
	if tc.Name != assistant.AddEventToolName {
		return Unknown{Name: tc.Name, Args: tc.Args}
	}
	var c AddEvent
	str := func(key string) string {
		v, ok := tc.Args[key]
		if !ok || v == nil {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			c.NonString = append(c.NonString, key)
		}
		return s
	}
	c.Title = strings.TrimSpace(str("title"))
	c.StartISO = strings.TrimSpace(str("startIso"))
	c.EndISO = strings.TrimSpace(str("endIso"))
	c.Description = str("description")
	c.Type = strings.TrimSpace(str("type"))
	if raw, ok := tc.Args["raw"].(string); ok && len(tc.Args) == 1 {
		c.Unparsed = raw
	}
	return c
}
