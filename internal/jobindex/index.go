// Package jobindex is a SQLite-backed read index over the per-job JSON
// documents in jobstore. It is derived state, never the record-of-truth:
// every row can be rebuilt from the job directory, and the external viewer
// contract (spec.md §4.13, §6) is satisfied entirely by the JSON files.
// The index exists only so the daemon can answer "is a job already running
// for this source path" and aggregate-savings queries without reading every
// job file on every lookup.
package jobindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gwlsn/av1janitor/internal/jobs"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	status TEXT NOT NULL,
	original_bytes INTEGER NOT NULL DEFAULT 0,
	new_bytes INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_source_path ON jobs(source_path);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Index is a rebuildable cache; callers must not treat it as durable.
type Index struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates (or reopens) the index database at dbPath.
func Open(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("jobindex: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("jobindex: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobindex: create schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Rebuild replaces the entire index contents with all, the full set of jobs
// read from jobstore. The daemon calls it once at startup.
func (idx *Index) Rebuild(all []*jobs.Job) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("jobindex: begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM jobs"); err != nil {
		return fmt.Errorf("jobindex: clear: %w", err)
	}
	for _, j := range all {
		if err := upsertTx(tx, j); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Upsert inserts or updates the index row for job. Called by the controller
// after every durable save so the index never drifts far from jobstore.
func (idx *Index) Upsert(job *jobs.Job) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("jobindex: begin upsert: %w", err)
	}
	defer tx.Rollback()
	if err := upsertTx(tx, job); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertTx(tx *sql.Tx, j *jobs.Job) error {
	var finishedAt *string
	if j.FinishedAt != nil {
		s := j.FinishedAt.UTC().Format(time.RFC3339)
		finishedAt = &s
	}
	_, err := tx.Exec(`
		INSERT INTO jobs (id, source_path, status, original_bytes, new_bytes, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			status = excluded.status,
			original_bytes = excluded.original_bytes,
			new_bytes = excluded.new_bytes,
			finished_at = excluded.finished_at
	`, j.ID, j.SourcePath, string(j.Status), j.OriginalBytes, j.NewBytes,
		j.CreatedAt.UTC().Format(time.RFC3339), finishedAt)
	if err != nil {
		return fmt.Errorf("jobindex: upsert %s: %w", j.ID, err)
	}
	return nil
}

// HasJobForSource reports whether a job is currently Running for sourcePath.
// The controller consults this before minting a new job so that a source
// path emitted twice by the same scan cycle (overlapping library roots, a
// symlink the walk visits from two directions) never starts a second
// encoder against a file one is already in flight for. Terminal jobs
// (Success, Failed, Skipped) never count: Failed carries no skip marker
// specifically so the next cycle retries it, and a Success/Skipped source no
// longer matches the candidate criteria that got it here in the first place.
func (idx *Index) HasJobForSource(sourcePath string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var count int
	err := idx.db.QueryRow(
		"SELECT COUNT(1) FROM jobs WHERE source_path = ? AND status = ?",
		sourcePath, string(jobs.StatusRunning),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("jobindex: query: %w", err)
	}
	return count > 0, nil
}

// Stats summarizes job counts per status and the bytes saved by successful
// jobs.
type Stats struct {
	Pending   int
	Running   int
	Success   int
	Failed    int
	Skipped   int
	TotalSaved int64
}

// Stats computes aggregate counters from the indexed rows.
func (idx *Index) Stats() (Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var s Stats
	rows, err := idx.db.Query("SELECT status, original_bytes, new_bytes FROM jobs")
	if err != nil {
		return s, fmt.Errorf("jobindex: stats query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var orig, newBytes int64
		if err := rows.Scan(&status, &orig, &newBytes); err != nil {
			return s, fmt.Errorf("jobindex: stats scan: %w", err)
		}
		switch jobs.Status(status) {
		case jobs.StatusPending:
			s.Pending++
		case jobs.StatusRunning:
			s.Running++
		case jobs.StatusSuccess:
			s.Success++
			s.TotalSaved += orig - newBytes
		case jobs.StatusFailed:
			s.Failed++
		case jobs.StatusSkipped:
			s.Skipped++
		}
	}
	return s, rows.Err()
}
