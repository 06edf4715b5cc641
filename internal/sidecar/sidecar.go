// Package sidecar manages the permanent skip markers and human-readable
// reason files stored alongside source media (spec.md §4.2).
package sidecar

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
)

// skipSuffix and whySuffix are appended to a source path to derive its
// sidecar paths.
const (
	skipSuffix = ".av1skip"
	whySuffix  = ".why.txt"
)

// SkipPath returns the zero-byte permanent skip marker path for a source.
func SkipPath(sourcePath string) string { return sourcePath + skipSuffix }

// ReasonPath returns the human-readable reason file path for a source.
func ReasonPath(sourcePath string) string { return sourcePath + whySuffix }

// HasSkip reports whether a permanent skip marker already exists for path.
func HasSkip(path string) bool {
	_, err := os.Stat(SkipPath(path))
	return err == nil
}

// MarkSkip writes a zero-byte permanent skip marker for path. It is
// idempotent: re-marking an already-skipped path is a no-op success.
func MarkSkip(path string) error {
	f, err := os.OpenFile(SkipPath(path), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("mark skip: %w", err)
	}
	return f.Close()
}

// WriteReason writes a UTF-8 reason file alongside path, overwriting any
// prior reason.
func WriteReason(path, text string) error {
	return os.WriteFile(ReasonPath(path), []byte(text), 0644)
}

// SizeGateReason formats the reason text the size gate writes on rejection
// (spec.md §4.9): original bytes, new bytes, and the configured ratio.
func SizeGateReason(original, encoded int64, ratio float64) string {
	return fmt.Sprintf(
		"size gate rejected: encoded %s (%s) is not below %.0f%% of source %s (%s)",
		humanize.Bytes(uint64(encoded)), humanizeExact(encoded),
		ratio*100,
		humanize.Bytes(uint64(original)), humanizeExact(original),
	)
}

func humanizeExact(n int64) string {
	return fmt.Sprintf("%d bytes", n)
}
