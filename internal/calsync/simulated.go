package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
	"github.com/tomokana225/schedule-planning/internal/dateutil"
	"github.com/tomokana225/schedule-planning/internal/models"
)

type simulatedEvent struct {
	title       string
	dayOffset   int
	start, end  [2]int
	description string
}

var simulatedEvents = []simulatedEvent{
	{"Google カレンダー: チーム定例", 0, [2]int{9, 30}, [2]int{10, 30}, "外部カレンダーから同期されました"},
	{"Google カレンダー: 歯科検診", 1, [2]int{15, 0}, [2]int{16, 0}, ""},
	{"Google カレンダー: フライト", 3, [2]int{10, 0}, [2]int{13, 0}, ""},
}

// simulate waits the configured latency and returns the demo events relative
// to today. Ids are fresh on every call.
func (a *Adapter) simulate(ctx context.Context) ([]models.Event, error) {
	a.logger.Info("no provider client id configured, using simulated sync",
		slog.Duration("latency", a.session.SimulatedLatency))

	timer := time.NewTimer(a.session.SimulatedLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", apperr.ErrSyncFailed, ctx.Err())
	case <-timer.C:
	}

	today := dateutil.StartOfDay(a.now().In(a.session.Location))
	events := make([]models.Event, 0, len(simulatedEvents))
	for _, s := range simulatedEvents {
		day := today.AddDate(0, 0, s.dayOffset)
		events = append(events, models.Event{
			ID:          a.newID(),
			Title:       s.title,
			Start:       dateutil.Combine(day, s.start[0], s.start[1]),
			End:         dateutil.Combine(day, s.end[0], s.end[1]),
			Type:        models.TypeExternal,
			Description: s.description,
			Source:      models.SourceExternal,
		})
	}
	return events, nil
}
