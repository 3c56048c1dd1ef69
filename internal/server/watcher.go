package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/session"
)

// DefaultDebounce collapses the burst of events editors emit for one save.
const DefaultDebounce = 100 * time.Millisecond

// MapWatcher reloads a session's map whenever its file changes on disk.
type MapWatcher struct {
	path     string
	session  *session.Session
	logger   *log.Logger
	debounce time.Duration
	ready    chan struct{}
}

// NewMapWatcher watches path on behalf of s.
func NewMapWatcher(path string, s *session.Session, logger *log.Logger) *MapWatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &MapWatcher{
		path:     filepath.Clean(path),
		session:  s,
		logger:   logger,
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watch is registered.
func (w *MapWatcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled. The file's directory is watched rather
// than the file so that editors replacing the file are noticed.
func (w *MapWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create map watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	close(w.ready)
	w.logger.Info("watching map", "path", w.path)

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			w.reload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("map watcher error", "err", err)
		}
	}
}

// reload keeps the current map when the file does not load or validate.
func (w *MapWatcher) reload(ctx context.Context) {
	m, err := mapdata.LoadFile(w.path)
	if err != nil {
		w.logger.Warn("map reload failed", "path", w.path, "err", err)
		return
	}
	if err := w.session.ReplaceMap(ctx, m); err != nil {
		w.logger.Warn("map rejected", "path", w.path, "err", err)
		return
	}
	w.logger.Info("map reloaded", "path", w.path, "width", m.Width, "height", m.Height, "walls", len(m.Walls))
}
