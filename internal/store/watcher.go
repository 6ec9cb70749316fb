package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts background reloads: on changes to WatchPath when set, otherwise
// every RefreshInterval when positive. It returns immediately; the goroutine
// stops when ctx is done or Close is called.
func (s *Store) Watch(ctx context.Context) error {
	switch {
	case s.opts.WatchPath != "":
		return s.startFileWatcher(ctx)
	case s.opts.RefreshInterval > 0:
		s.wg.Add(1)
		go s.refreshLoop(ctx)
		return nil
	default:
		return nil
	}
}

// startFileWatcher watches the directory of WatchPath so that files replaced
// by rename, and SQLite -wal/-shm siblings, are seen too.
func (s *Store) startFileWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(s.opts.WatchPath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Printf("[Store] failed to close watcher: %v", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.wg.Add(1)
	go s.watchLoop(ctx, watcher)

	log.Printf("[Store] watching %s for changes", s.opts.WatchPath)
	return nil
}

// watchLoop handles file system events with debouncing
func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer watcher.Close()

	base := filepath.Base(s.opts.WatchPath)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce rapid changes
			if debounce == nil {
				debounce = time.NewTimer(s.opts.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(s.opts.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			s.reloadInBackground(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Store] watcher error: %v", err)

		case <-ctx.Done():
			return

		case <-s.stopChan:
			return
		}
	}
}

// refreshLoop reloads on a fixed interval
func (s *Store) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reloadInBackground(ctx)
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

func (s *Store) reloadInBackground(ctx context.Context) {
	if _, err := s.Reload(ctx); err != nil {
		log.Printf("[Store] reload failed, keeping snapshot v%d: %v", s.currentVersion(), err)
	}
}

func (s *Store) currentVersion() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.Version
	}
	return 0
}
