package jobindex

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gwlsn/av1janitor/internal/jobs"
)

func idxJob(id, path string, status jobs.Status, orig, newBytes int64) *jobs.Job {
	return &jobs.Job{
		ID:            id,
		SourcePath:    path,
		Status:        status,
		OriginalBytes: orig,
		NewBytes:      newBytes,
		CreatedAt:     time.Now(),
	}
}

func TestIndex_HasJobForSource_TrueOnlyWhileRunning(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if err := idx.Upsert(idxJob("j1", "/media/a.mkv", jobs.StatusRunning, 0, 0)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	has, err := idx.HasJobForSource("/media/a.mkv")
	if err != nil {
		t.Fatalf("HasJobForSource: %v", err)
	}
	if !has {
		t.Error("expected true for a source with a running job")
	}

	has, err = idx.HasJobForSource("/media/b.mkv")
	if err != nil {
		t.Fatalf("HasJobForSource: %v", err)
	}
	if has {
		t.Error("expected false for unknown source")
	}
}

func TestIndex_HasJobForSource_FalseOnceTerminal(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	job := idxJob("j1", "/media/a.mkv", jobs.StatusRunning, 0, 0)
	if err := idx.Upsert(job); err != nil {
		t.Fatalf("Upsert running: %v", err)
	}

	job.Status = jobs.StatusFailed
	if err := idx.Upsert(job); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	has, err := idx.HasJobForSource("/media/a.mkv")
	if err != nil {
		t.Fatalf("HasJobForSource: %v", err)
	}
	if has {
		t.Error("expected false once the job reaches a terminal status, so a failed source is retried")
	}
}

func TestIndex_UpsertIsIdempotent(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	job := idxJob("j1", "/media/a.mkv", jobs.StatusPending, 0, 0)
	if err := idx.Upsert(job); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	job.Status = jobs.StatusSuccess
	job.OriginalBytes = 100
	job.NewBytes = 50
	if err := idx.Upsert(job); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	stats, err := idx.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Success != 1 || stats.Pending != 0 {
		t.Errorf("Stats = %+v, want one success, zero pending", stats)
	}
}

func TestIndex_StatsAggregatesSavings(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	idx.Upsert(idxJob("j1", "/media/a.mkv", jobs.StatusSuccess, 1000, 400))
	idx.Upsert(idxJob("j2", "/media/b.mkv", jobs.StatusSuccess, 2000, 800))
	idx.Upsert(idxJob("j3", "/media/c.mkv", jobs.StatusFailed, 0, 0))

	stats, err := idx.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalSaved != 1800 {
		t.Errorf("TotalSaved = %d, want 1800", stats.TotalSaved)
	}
	if stats.Success != 2 || stats.Failed != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestIndex_RebuildReplacesContents(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	idx.Upsert(idxJob("stale", "/media/stale.mkv", jobs.StatusRunning, 0, 0))

	fresh := []*jobs.Job{idxJob("j1", "/media/a.mkv", jobs.StatusRunning, 0, 0)}
	if err := idx.Rebuild(fresh); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	has, _ := idx.HasJobForSource("/media/stale.mkv")
	if has {
		t.Error("expected stale entry removed by rebuild")
	}
	has, _ = idx.HasJobForSource("/media/a.mkv")
	if !has {
		t.Error("expected fresh entry present after rebuild")
	}
}
