package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// Watch reloads the digest whenever its file changes, including when a run in another
// process replaces it. It blocks until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create digest watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(s.digests.Path())
	// the file is replaced by rename, so the directory is watched
	if err = watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Info("watching digest file", "file", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == target && ev.Op&watchedOps != 0 {
				s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("digest watcher error", "err", err)
		}
	}
}
