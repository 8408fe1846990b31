/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fulmenhq/gousemin/pkg/logger"
)

const watchDebounce = 300 * time.Millisecond

// inputWatcher calls onChange once changes to a set of files settle.
type inputWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context) error
}

// newInputWatcher watches the directories holding paths. Editors often
// replace files instead of writing them, which a watch on the file itself
// would miss.
func newInputWatcher(paths []string, onChange func(ctx context.Context) error) (*inputWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	files := make(map[string]bool, len(paths))
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	return &inputWatcher{
		watcher:  w,
		files:    files,
		debounce: watchDebounce,
		onChange: onChange,
	}, nil
}

// Run blocks until ctx is done. onChange never runs concurrently with itself.
func (iw *inputWatcher) Run(ctx context.Context) error {
	defer func() { _ = iw.watcher.Close() }()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return nil
			}
			if !iw.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				if event.Has(fsnotify.Remove) {
					logger.Warn("Input removed", logger.String("file", event.Name))
				}
				continue
			}
			logger.Debug("Input change detected", logger.String("file", event.Name), logger.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(iw.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(iw.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			if err := iw.onChange(ctx); err != nil {
				logger.Error("Re-processing failed", logger.Err(err))
			}

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error", logger.Err(err))
		}
	}
}

// watchInputs re-runs r whenever one of its inputs changes.
func watchInputs(ctx context.Context, r *processRun) error {
	iw, err := newInputWatcher(r.paths, r.once)
	if err != nil {
		return err
	}
	logger.Info("Watching inputs for changes", logger.Int("files", len(r.paths)))
	return iw.Run(ctx)
}
