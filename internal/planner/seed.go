package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/models"
)

// SeedConfig selects the startup data.
type SeedConfig struct {
	Mock bool
	File string
}

// seedFile is the YAML layout of a seed file: a list of add-event forms.
type seedFile struct {
	Events []AddEventForm `yaml:"events"`
}

type mockEvent struct {
	title      string
	dayOffset  int
	start, end [2]int
	typ        models.EventType
}

var mockEvents = []mockEvent{
	{"週次ミーティング", 0, [2]int{10, 0}, [2]int{11, 0}, models.TypeWork},
	{"プロジェクトA レビュー", 0, [2]int{14, 0}, [2]int{15, 30}, models.TypeWork},
	{"ジム", 1, [2]int{18, 0}, [2]int{19, 30}, models.TypePersonal},
	{"ランチ（田中さん）", 2, [2]int{12, 0}, [2]int{13, 0}, models.TypePersonal},
}

// MockEvents returns the demo events relative to today.
func (s *Service) MockEvents() []models.Event {
	today := s.Today()
	out := make([]models.Event, 0, len(mockEvents))
	for _, m := range mockEvents {
		day := today.AddDate(0, 0, m.dayOffset)
		out = append(out, models.Event{
			ID:     s.newID(),
			Title:  m.title,
			Start:  dateutil.Combine(day, m.start[0], m.start[1]),
			End:    dateutil.Combine(day, m.end[0], m.end[1]),
			Type:   m.typ,
			Source: models.SourceLocal,
		})
	}
	return out
}

// LoadSeedFile reads seed events from a YAML file.
func (s *Service) LoadSeedFile(path string) ([]models.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	out := make([]models.Event, 0, len(f.Events))
	for i := range f.Events {
		form := f.Events[i]
		if err := form.Validate(); err != nil {
			return nil, fmt.Errorf("seed event %d: %w", i, err)
		}
		e, err := form.event(s.newID(), s.loc)
		if err != nil {
			return nil, fmt.Errorf("seed event %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Seed stores the startup events in one step. A store that already holds
// events, such as a reopened sqlite file, is left alone.
func (s *Service) Seed(ctx context.Context, cfg SeedConfig) error {
	existing, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("store not empty, skipping seed", slog.Int("count", len(existing)))
		return nil
	}

	var events []models.Event
	if cfg.Mock {
		events = append(events, s.MockEvents()...)
	}
	if cfg.File != "" {
		fromFile, err := s.LoadSeedFile(cfg.File)
		if err != nil {
			return err
		}
		events = append(events, fromFile...)
	}
	if len(events) == 0 {
		return nil
	}
	if err := s.store.Append(ctx, events...); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.committed("seed", len(events))
	return nil
}
