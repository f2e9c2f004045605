// Package ingest discovers documents to extract: a one-shot recursive
// directory scan and an fsnotify-based watcher for continuous operation.
// Both emit file paths; feeding them to the extraction queue is the
// caller's job.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// defaultExts are the discoverable extensions (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
}

// DirStats aggregates one scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Emitted      uint32
	Deduplicated uint32
	Failed       uint32
}

// Scanner walks directories and emits matching file paths exactly once per
// distinct content hash. Safe for use from the watcher goroutine and a scan
// concurrently.
type Scanner struct {
	exts       map[string]struct{}
	skipHidden bool
	logger     *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{} // content hashes already emitted
}

func NewScanner(includeExts []string, skipHidden bool, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	exts := map[string]struct{}{}
	if len(includeExts) == 0 {
		exts = defaultExts
	} else {
		for _, e := range includeExts {
			e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
			if e != "" {
				exts[e] = struct{}{}
			}
		}
	}
	return &Scanner{
		exts:       exts,
		skipHidden: skipHidden,
		logger:     logger,
		seen:       map[string]struct{}{},
	}
}

// ScanDirectory walks root and calls emit for every matching, not-yet-seen
// file. Per-file failures are counted, logged, and skipped; only a broken
// walk aborts.
func (s *Scanner) ScanDirectory(root string, emit func(path string)) (DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return stats, errors.New("root path is required")
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			s.logger.Warn("ingest.scan.entry_failed", "path", path, "error", walkErr)
			stats.Failed++
			return nil // continue walking
		}
		if s.skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !s.Allowed(path) {
			return nil
		}
		stats.Matched++

		fresh, err := s.markSeen(path)
		if err != nil {
			s.logger.Warn("ingest.scan.hash_failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		if !fresh {
			stats.Deduplicated++
			return nil
		}
		emit(path)
		stats.Emitted++
		return nil
	})
	if err != nil {
		return stats, err
	}
	s.logger.Info("ingest.scan.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"emitted", stats.Emitted,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return stats, nil
}

// Allowed reports whether the path's extension is discoverable.
func (s *Scanner) Allowed(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := s.exts[ext]
	return ok
}

// MarkSeen hashes the file and records it, returning true the first time a
// given content is observed. Identical files under different names are
// emitted once.
func (s *Scanner) markSeen(path string) (bool, error) {
	sum, err := hashFile(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[sum]; ok {
		return false, nil
	}
	s.seen[sum] = struct{}{}
	return true, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
