// Package watcher adapts fsnotify events into a stream of candidate paths.
package watcher

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"ScanNamer/internal/domain"
	"ScanNamer/internal/ports"
)

// Watcher delivers paths of supported files created directly inside one
// directory (non-recursive). Directories and unsupported extensions are
// filtered before delivery.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan domain.IntakeEvent
	logger *slog.Logger
}

var _ ports.EventSource = (*Watcher)(nil)

// New starts watching dir. supported decides by path whether an entry is a
// pipeline candidate.
func New(dir string, supported func(string) bool, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new fsnotify watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fs:     fsw,
		events: make(chan domain.IntakeEvent, 16),
		logger: logger,
	}
	go w.loop(supported)
	return w, nil
}

func (w *Watcher) loop(supported func(string) bool) {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil || info.IsDir() {
				continue
			}
			if !supported(ev.Name) {
				continue
			}
			w.events <- domain.IntakeEvent{Path: ev.Name}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Events returns the stream of intake events. Closed when the watcher stops.
func (w *Watcher) Events() <-chan domain.IntakeEvent {
	return w.events
}

// Close stops watching and releases the inotify handle.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
