// Package scan walks configured library roots for video files and applies
// the stable-file gate that protects against touching files mid-transfer
// (spec.md §4.1).
package scan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gwlsn/av1janitor/internal/logger"
)

var errUnstable = errors.New("file size changed during stability window")

// videoExtensions is the fixed, case-insensitive whitelist of file
// extensions the scanner treats as candidates.
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true,
	".m4v": true, ".ts": true, ".m2ts": true,
}

// stabilizeWait is how long the stable-file gate waits between its two
// size samples.
const stabilizeWait = 10 * time.Second

// Candidate is a path that has passed extension filtering.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Scanner walks a fixed set of library roots.
type Scanner struct {
	Roots []string

	// stabilize overrides the 10s wait in tests.
	stabilize time.Duration

	sf singleflight.Group
}

// New returns a Scanner over roots.
func New(roots []string) *Scanner {
	return &Scanner{Roots: roots, stabilize: stabilizeWait}
}

// SetStabilizeWindow overrides the stable-file gate's wait duration, which
// otherwise defaults to 10s. Exposed for tests driving many scan cycles.
func (s *Scanner) SetStabilizeWindow(d time.Duration) {
	s.stabilize = d
}

// Scan walks every root depth-first and sends each stable candidate to
// emit. Directory enumeration errors are logged and the affected subtree is
// skipped, never fatal to the scan. Unstable or vanished files are simply
// not emitted this cycle — the next scheduled cycle re-examines them.
func (s *Scanner) Scan(ctx context.Context, emit func(Candidate)) {
	for _, root := range s.Roots {
		if ctx.Err() != nil {
			return
		}
		s.scanRoot(ctx, root, emit)
	}
}

func (s *Scanner) scanRoot(ctx context.Context, root string, emit func(Candidate)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Warn("scan: inaccessible path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isVideoExtension(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("scan: stat failed, skipping", "path", path, "error", err)
			return nil
		}

		cand, ok := s.verifyStable(ctx, path, info.Size())
		if !ok {
			return nil
		}
		emit(cand)
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Warn("scan: root walk ended early", "root", root, "error", err)
	}
}

// verifyStable samples the file's size, waits stabilizeWait, and re-stats.
// Concurrent checks of the same path are deduplicated via singleflight so
// two overlapping scan goroutines never race the same 10s wait twice.
func (s *Scanner) verifyStable(ctx context.Context, path string, initialSize int64) (Candidate, bool) {
	v, err, _ := s.sf.Do(path, func() (interface{}, error) {
		select {
		case <-time.After(s.stabilize):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, statErr
		}
		if info.Size() != initialSize {
			return nil, errUnstable
		}
		return Candidate{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
	})
	if err != nil {
		return Candidate{}, false
	}
	return v.(Candidate), true
}

func isVideoExtension(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
