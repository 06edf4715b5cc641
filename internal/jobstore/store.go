// Package jobstore is the durable record-of-truth for jobs: one JSON
// document per job, written atomically, so an external viewer can tail the
// directory without ever observing a torn write (spec.md §4.13).
package jobstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gwlsn/av1janitor/internal/jobs"
	"github.com/gwlsn/av1janitor/internal/logger"
)

// Store persists jobs as one file per ID under Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("jobstore: create dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

// Save writes job atomically: encode to a temp file in the same directory,
// fsync it, then rename over the target. The rename is atomic on the same
// filesystem, so readers never see a partial document.
func (s *Store) Save(job *jobs.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("jobstore: refusing to save invalid job: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: marshal: %w", err)
	}

	target := s.path(job.ID)
	tmp, err := os.CreateTemp(s.Dir, job.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("jobstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jobstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jobstore: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jobstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jobstore: rename temp into place: %w", err)
	}
	return nil
}

// Get loads a single job by ID.
func (s *Store) Get(id string) (*jobs.Job, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, err
	}
	var job jobs.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal %s: %w", id, err)
	}
	return &job, nil
}

// LoadAll enumerates every job record in the directory. Entries that fail
// to parse are logged and silently dropped rather than aborting the whole
// load: a single corrupt record must not block the daemon from starting.
func (s *Store) LoadAll() ([]*jobs.Job, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("jobstore: read dir: %w", err)
	}

	var out []*jobs.Job
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			logger.Warn("jobstore: skipping unreadable record", "file", e.Name(), "error", err)
			continue
		}
		var job jobs.Job
		if err := json.Unmarshal(data, &job); err != nil {
			logger.Warn("jobstore: skipping unparseable record", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, &job)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a job record. A missing record is not an error.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("jobstore: delete %s: %w", id, err)
	}
	return nil
}
