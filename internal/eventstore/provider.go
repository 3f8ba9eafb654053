// Package eventstore holds the authoritative in-memory collection of calendar
// events.
package eventstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// Store is the event collection every component reads and mutates.
// Each mutating call is atomic: either every event in it is applied or none.
type Store interface {
	// List returns a copy of all events in insertion order.
	List(ctx context.Context) ([]models.Event, error)
	// Append inserts events after the existing ones.
	Append(ctx context.Context, events ...models.Event) error
	// ReplaceExternal drops every external event and appends batch in its
	// place. Local events are untouched.
	ReplaceExternal(ctx context.Context, batch []models.Event) error
	Close() error
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
)

// Validate checks the per-event invariants enforced on every insert.
func Validate(e models.Event) error {
	if e.ID == "" {
		return fmt.Errorf("%w: event id is empty", apperr.ErrValidation)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: event %s has an empty title", apperr.ErrValidation, e.ID)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: event %s has unknown type %q", apperr.ErrValidation, e.ID, e.Type)
	}
	if !e.Source.Valid() {
		return fmt.Errorf("%w: event %s has unknown source %q", apperr.ErrValidation, e.ID, e.Source)
	}
	if !e.End.After(e.Start) {
		return fmt.Errorf("event %s: %w", e.ID, apperr.ErrInvalidTimeRange)
	}
	return nil
}

// validateBatch validates events and checks their ids against each other and
// against taken.
func validateBatch(events []models.Event, taken func(id string) bool) error {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if err := Validate(e); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup || taken(e.ID) {
			return fmt.Errorf("event %s: %w", e.ID, apperr.ErrAlreadyExists)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func requireExternal(batch []models.Event) error {
	for _, e := range batch {
		if e.Source != models.SourceExternal {
			return fmt.Errorf("%w: event %s in sync batch is not external", apperr.ErrValidation, e.ID)
		}
	}
	return nil
}
