package world

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/grove/internal/logger"
)

// ReloadFunc is called with the path of a changed file before the world is
// asked to regenerate. Returning an error skips that regeneration. A non-nil
// path list replaces the set of watched files.
type ReloadFunc func(path string) (paths []string, err error)

// watchSet tracks watched files and the directories registered for them.
// Directories are watched so editors that replace files are still seen.
type watchSet struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	dirs    map[string]bool
}

// update registers the directories of paths and drops directories no
// longer needed. On error the previous set stays registered.
func (s *watchSet) update(paths []string) error {
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	var added []string
	for dir := range dirs {
		if s.dirs[dir] {
			continue
		}
		if err := s.watcher.Add(dir); err != nil {
			for _, d := range added {
				s.watcher.Remove(d)
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		added = append(added, dir)
	}
	for dir := range s.dirs {
		if !dirs[dir] {
			s.watcher.Remove(dir)
		}
	}

	s.files, s.dirs = files, dirs
	return nil
}

// Watch regenerates the world whenever one of paths is written or created.
// A ticker at the configured frame rate drives Update, so regeneration runs
// on the second frame after the change is seen. Watch blocks until ctx is done.
func (w *World) Watch(ctx context.Context, paths []string, reload ReloadFunc) error {
	log := logger.Named("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	set := &watchSet{watcher: watcher}
	if err := set.update(paths); err != nil {
		return err
	}
	log.Info("watching", zap.Strings("paths", paths), zap.Duration("frame", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped",
				zap.Uint64("frames", w.Frame()),
				zap.Bool("pending", w.Pending()),
				zap.Int("generations", w.Generation()))
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !set.files[name] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("file changed", zap.String("path", name), zap.String("op", ev.Op.String()))
			if reload != nil {
				next, err := reload(name)
				if err != nil {
					log.Error("reload failed, keeping current world", zap.String("path", name), zap.Error(err))
					continue
				}
				if next != nil {
					if err := set.update(next); err != nil {
						log.Error("updating watched files", zap.Strings("paths", next), zap.Error(err))
					} else {
						log.Debug("watched files updated", zap.Strings("paths", next))
					}
				}
			}
			w.RequestRegenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			// Errors are already logged by Regenerate.
			w.Update()
		}
	}
}
