package mcpserver

// ToolContract describes how add_calendar_event arguments are validated.
const ToolContract = `# add_calendar_event Contract

## Arguments

| name        | required | format                                   |
|-------------|----------|------------------------------------------|
| title       | yes      | non-empty string                         |
| startIso    | yes      | ISO 8601 date-time                       |
| endIso      | yes      | ISO 8601 date-time, strictly after start |
| description | no       | free text                                |
| type        | no       | one of work, personal, meeting           |

## Rules

1. **Date-times** may carry an offset (` + "`2026-10-16T09:00:00+09:00`" + `) or not
   (` + "`2026-10-16T09:00:00`" + `, ` + "`2026-10-16T09:00`" + `). Values without an offset are
   read in the planner's display time zone.
2. **End after start.** Calls with ` + "`endIso <= startIso`" + ` are rejected. Times are never
   swapped or clamped.
3. **Type** defaults to ` + "`ai-suggested`" + ` when missing or not in the list above.
4. **Every call is independent.** A rejected call does not affect other calls in the
   same turn.
5. Created events are always local. External events only change through
   ` + "`sync_external_calendar`" + `.
`
