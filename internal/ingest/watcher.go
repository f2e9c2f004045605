package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig configures continuous discovery.
type WatchConfig struct {
	Roots    []string      // directories to watch, recursive
	Debounce time.Duration // coalesce rapid write/rename bursts per path
}

// Watch emits paths of newly created or modified matching files until ctx
// ends. New subdirectories are added to the watch set as they appear. The
// scanner's dedup applies, so a burst of events for one file emits once.
func (s *Scanner) Watch(ctx context.Context, cfg WatchConfig) (<-chan string, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if s.skipHidden && isHidden(path) && path != root {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	evCh := make(chan string, 256)
	go func() {
		defer close(evCh)
		defer func() { _ = w.Close() }()

		var (
			timer     *time.Timer
			pendingMu sync.Mutex
			pending   = map[string]struct{}{}
		)

		// flush may run on the timer goroutine, so pending is mutex-guarded.
		flush := func() {
			pendingMu.Lock()
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
				delete(pending, p)
			}
			pendingMu.Unlock()

			for _, p := range batch {
				fresh, err := s.markSeen(p)
				if err != nil {
					s.logger.Warn("ingest.watch.hash_failed", "path", p, "error", err)
					continue
				}
				if fresh {
					select {
					case evCh <- p:
					case <-ctx.Done():
						return
					}
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create != 0 {
					// New directories join the watch set; Add on a plain
					// file fails and is ignored.
					_ = w.Add(e.Name)
				}
				if !s.Allowed(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pendingMu.Lock()
				pending[e.Name] = struct{}{}
				pendingMu.Unlock()
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(cfg.Debounce, flush)
				} else {
					flush()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Error("ingest.watch.error", "error", err)
			}
		}
	}()

	return evCh, nil
}
