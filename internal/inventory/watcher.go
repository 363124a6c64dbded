package inventory

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current Inventory Snapshot plus a generation counter that
// advances every time the filesystem is rescanned, so callers that memoize
// on a snapshot (C8's resolver) can detect staleness cheaply instead of
// comparing the whole Snapshot by value.
type Store struct {
	projectsDir, vpsDir string
	log                 *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
	gen  atomic.Uint64
}

// NewStore scans projectsDir/vpsDir once and returns a ready Store.
func NewStore(projectsDir, vpsDir string, log *slog.Logger) (*Store, error) {
	s := &Store{projectsDir: projectsDir, vpsDir: vpsDir, log: log}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current inventory and its generation.
func (s *Store) Snapshot() (Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.gen.Load()
}

func (s *Store) reload() error {
	snap, err := Load(s.projectsDir, s.vpsDir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.gen.Add(1)
	return nil
}

// Watch starts an fsnotify watch on both directories, rescanning on any
// write/create/remove/rename event, until stop is closed. Errors from the
// watcher itself are logged and non-fatal — a missed rescan just leaves the
// inventory stale until the next event.
func (s *Store) Watch(stop <-chan struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range []string{s.projectsDir, s.vpsDir} {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				s.log.Warn("inventory rescan failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("inventory watcher error", "error", err)
		}
	}
}
