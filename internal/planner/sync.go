package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tomokana225/schedule-planning/internal/apperr"
)

// SyncResult describes a completed sync.
type SyncResult struct {
	Count    int    `json:"count"`
	Revision uint64 `json:"revision"`
}

// Sync fetches the external calendar and replaces every external event with
// the fetched batch in one step. On failure the store is unchanged and the
// error wraps apperr.ErrSyncFailed. A second Sync while one is running fails
// with apperr.ErrBusy.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	ticket, err := s.syncGate.Begin()
	if err != nil {
		return SyncResult{}, err
	}
	res, err := s.sync(ctx)
	s.syncGate.Finish(ticket, err)
	if err != nil {
		s.logger.Warn("external sync failed", slog.String("error", err.Error()))
	}
	return res, err
}

func (s *Service) sync(ctx context.Context) (SyncResult, error) {
	batch, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, apperr.ErrSyncFailed) {
			err = fmt.Errorf("%w: %w", apperr.ErrSyncFailed, err)
		}
		return SyncResult{}, err
	}
	if err := s.store.ReplaceExternal(ctx, batch); err != nil {
		return SyncResult{}, fmt.Errorf("%w: %w", apperr.ErrSyncFailed, err)
	}
	s.connected.Store(true)
	rev := s.committed("sync", len(batch))
	return SyncResult{Count: len(batch), Revision: rev}, nil
}
