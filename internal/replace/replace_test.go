package replace

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestSwap_SuccessDeletesBackupByDefault(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	temp := filepath.Join(dir, "movie.mkv.tmp")

	mustWrite(t, source, "original")
	mustWrite(t, temp, "encoded")

	result, err := Swap(source, temp, false)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if !result.BackupDeleted {
		t.Error("expected backup deleted")
	}
	if readFile(t, source) != "encoded" {
		t.Error("expected source to contain encoded content")
	}
	if _, err := os.Stat(result.BackupPath); !os.IsNotExist(err) {
		t.Error("expected backup file removed")
	}
}

func TestSwap_KeepOriginalRetainsBackup(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	temp := filepath.Join(dir, "movie.mkv.tmp")

	mustWrite(t, source, "original")
	mustWrite(t, temp, "encoded")

	result, err := Swap(source, temp, true)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if result.BackupDeleted {
		t.Error("expected backup retained")
	}
	if readFile(t, result.BackupPath) != "original" {
		t.Error("expected backup to contain original content")
	}
	if readFile(t, source) != "encoded" {
		t.Error("expected source to contain encoded content")
	}
}

func TestSwap_MissingTempRollsBackOriginalIntact(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	temp := filepath.Join(dir, "movie.mkv.tmp") // never created

	mustWrite(t, source, "original")

	_, err := Swap(source, temp, false)
	if err == nil {
		t.Fatal("expected error when temp output is missing")
	}
	if readFile(t, source) != "original" {
		t.Error("expected original to be restored at source path after rollback")
	}
}

func TestSwap_BackupPathCarriesEpochSuffix(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	temp := filepath.Join(dir, "movie.mkv.tmp")
	mustWrite(t, source, "original")
	mustWrite(t, temp, "encoded")

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	defer func() { now = orig }()

	result, err := Swap(source, temp, true)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	want := source + ".orig." + strconv.FormatInt(fixed.Unix(), 10)
	if result.BackupPath != want {
		t.Errorf("BackupPath = %q, want %q", result.BackupPath, want)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
