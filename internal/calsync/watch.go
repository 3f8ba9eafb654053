package calsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// tokenSettle is how long the token file must stay quiet before onChange runs.
// Writers typically truncate then write, which yields several events.
const tokenSettle = 200 * time.Millisecond

// WatchToken calls onChange each time the session's token file is created or
// rewritten, until ctx is cancelled. The parent directory is watched so that
// a token saved by a separate login process is noticed.
func WatchToken(ctx context.Context, session Session, logger *slog.Logger, onChange func()) error {
	session = session.WithDefaults()
	path, err := filepath.Abs(session.TokenFile)
	if err != nil {
		return fmt.Errorf("calsync: token path: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("calsync: token dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("calsync: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("calsync: watch %s: %w", dir, err)
	}

	logger.Info("token watcher: started", slog.String("path", path))

	var settle *time.Timer
	var settled <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("token watcher: stopped")
			return nil

		case <-settled:
			settled = nil
			logger.Info("token watcher: token changed", slog.String("path", path))
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(tokenSettle)
			} else {
				settle.Reset(tokenSettle)
			}
			settled = settle.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("token watcher: error", slog.String("error", werr.Error()))
		}
	}
}
