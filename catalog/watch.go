package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit on save.
const reloadDelay = 150 * time.Millisecond

// Watch reloads the catalog at path whenever it changes on disk and passes
// the result to onChange. The parent directory is watched so atomic
// rename-on-save is seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func([]Artwork, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: watch: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", path, err)
	}

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			reload = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "path", path, "err", err)

		case <-reload:
			reload = nil
			arts, err := Load(path)
			if err != nil {
				slog.Warn("catalog reload failed", "path", path, "err", err)
			} else {
				slog.Info("catalog reloaded", "path", path, "artworks", len(arts))
			}
			onChange(arts, err)
		}
	}
}
