// config/watch.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jct32/flightstream/log"

	"github.com/fsnotify/fsnotify"
)

const usernameWatchDebounce = 200 * time.Millisecond

// UsernameWatcher calls a function after the username file changes.
// Editors tend to generate a burst of events for a single save, so
// changes are coalesced.
type UsernameWatcher struct {
	path     string
	onChange func()
	lg       *log.Logger
	watcher  *fsnotify.Watcher
}

// NewUsernameWatcher starts watching the directory containing path,
// creating it if necessary. Run must be called to deliver changes.
func NewUsernameWatcher(path string, lg *log.Logger, onChange func()) (*UsernameWatcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// The file itself may be replaced rather than rewritten, so watch the
	// directory.
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &UsernameWatcher{
		path:     path,
		onChange: onChange,
		lg:       lg,
		watcher:  w,
	}, nil
}

// Run delivers changes until ctx is canceled.
func (uw *UsernameWatcher) Run(ctx context.Context) error {
	defer uw.watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-uw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != uw.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				uw.lg.Debug("username file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				pending = time.After(usernameWatchDebounce)
			}

		case err, ok := <-uw.watcher.Errors:
			if !ok {
				return nil
			}
			uw.lg.Warn("username watcher error", slog.Any("error", err))

		case <-pending:
			pending = nil
			uw.onChange()
		}
	}
}
