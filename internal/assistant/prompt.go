package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/tomokana225/schedule-planning/internal/models"
)

// AddEventToolName is the only tool the model is offered.
const AddEventToolName = "add_calendar_event"

const preambleTemplate = `You are an expert AI Scheduler Assistant named "OptiPlan".
Current Context:
- Today is: %s
- User's existing schedule: %s

Capabilities:
1. Analyze gaps in the schedule.
2. Suggest optimal times.
3. Use '%s' tool if requested.
4. Be polite and concise.`

// AddEventTool declares add_calendar_event to the model.
func AddEventTool() llms.Tool {
	return funcTool(AddEventToolName,
		"Add a new event to the calendar. Use this when the user accepts a suggestion or asks to schedule something.",
		AddEventSchema())
}

// AddEventSchema is the JSON schema of the add_calendar_event arguments.
func AddEventSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "description": "Title of the event"},
			"startIso":    map[string]any{"type": "string", "description": "Start time in ISO 8601 format"},
			"endIso":      map[string]any{"type": "string", "description": "End time in ISO 8601 format"},
			"description": map[string]any{"type": "string", "description": "Description"},
			"type": map[string]any{
				"type":        "string",
				"description": `Type of event: "work", "personal", "meeting"`,
				"enum":        []string{"work", "personal", "meeting"},
			},
		},
		"required": []string{"title", "startIso", "endIso"},
	}
}

func funcTool(name, desc string, params any) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        name,
			Description: desc,
			Parameters:  params,
		},
	}
}

// Preamble renders the fixed system instruction for a turn.
func Preamble(ref time.Time, schedule []models.ScheduleItem) (string, error) {
	if schedule == nil {
		schedule = []models.ScheduleItem{}
	}
	snapshot, err := json.Marshal(schedule)
	if err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}
	return fmt.Sprintf(preambleTemplate, ref.Format(time.RFC3339), snapshot, AddEventToolName), nil
}

// Messages builds the model conversation: preamble, prior history, then the
// utterance. Leading assistant messages are dropped because the conversation
// has to open with a user turn. Empty messages are skipped.
func Messages(turn Turn) ([]llms.MessageContent, error) {
	preamble, err := Preamble(turn.ReferenceDate, turn.Schedule)
	if err != nil {
		return nil, err
	}

	messages := make([]llms.MessageContent, 0, len(turn.History)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, preamble))

	opened := false
	for _, m := range turn.History {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			opened = true
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Text))
		case models.RoleAssistant:
			if !opened {
				continue
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, m.Text))
		}
	}

	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.Utterance))
	return messages, nil
}

// parseToolArgs decodes a tool argument string. Text that is not a JSON object
// is kept under "raw" so the executor can reject it as malformed.
func parseToolArgs(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{"raw": raw}
	}
	return args
}
