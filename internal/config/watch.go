package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events an atomic save produces
// (write, rename, create in quick succession) into a single reload.
const reloadDebounce = 100 * time.Millisecond

// Watch monitors path for changes and calls onChange with the newly
// loaded Config each time the file is written. Watch mode uses this to
// pick up scoring-weight changes without restarting. It runs until ctx
// is cancelled.
//
// Reloads are debounced: editors that save atomically emit several
// filesystem events per save, and the file may be mid-replace when the
// first event arrives, so Watch waits reloadDebounce after the last
// qualifying event before reading.
//
// If a reload fails (e.g., invalid YAML or a failed validation), the
// error is logged and the previous config remains active — onChange is
// not called.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only react to write or create events. Editors often write
			// via rename (atomic save), so the create matters too.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}

			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
