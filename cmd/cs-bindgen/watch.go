package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay coalesces the burst of events a single build produces.
const settleDelay = 150 * time.Millisecond

// fileWatcher reruns fn whenever the watched file is written or replaced.
type fileWatcher struct {
	path   string
	fn     func(context.Context) error
	logger *zap.Logger
	settle time.Duration
}

// Watch blocks until ctx is done. Failures of fn are logged and the loop
// keeps watching. The parent directory is watched so atomic replacements
// (write to temp, rename) are observed too.
func (w *fileWatcher) Watch(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	w.logger.Info("watching module for changes", zap.String("path", abs))
	return w.loop(ctx, watcher.Events, watcher.Errors, filepath.Base(abs))
}

func (w *fileWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, filename string) error {
	settle := w.settle
	if settle <= 0 {
		settle = settleDelay
	}
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}

			// Only react to the module file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug("module changed",
					zap.String("event", event.Op.String()),
					zap.String("file", event.Name))
				timer.Reset(settle)
			}

		case <-timer.C:
			if err := w.fn(ctx); err != nil {
				w.logger.Error("regeneration failed", zap.Error(err))
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}
