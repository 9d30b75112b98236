package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/schedule"
)

// Watcher calls a function when a file changes. Bursts of events within
// the debounce window produce a single call.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	task     *schedule.Task
	fsw      *fsnotify.Watcher
	log      *log.Logger
}

// NewWatcher watches path. The parent directory is watched so editors
// that replace the file atomically are followed.
func NewWatcher(path string, debounce time.Duration, c clock.Clock, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		task:     schedule.NewTask(c),
		fsw:      fsw,
		log:      log.ForService("watcher"),
	}, nil
}

// Run dispatches events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.task.Cancel()

	w.log.Infof("watching %s", w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.log.Debugf("%s: %s", ev.Op, ev.Name)
				w.task.Arm(w.debounce, w.onChange)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("watch error: %v", err)
		}
	}
}
