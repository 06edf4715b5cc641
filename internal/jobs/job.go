// Package jobs defines the durable Job record and its status lifecycle.
package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Status is the tagged variant describing where a Job sits in the
// controller's state machine (spec.md §4.12).
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal reports whether the status is one of the state machine's
// terminal states.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// SourceType is the classifier's tagged output, persisted alongside the job
// for traceability even though it is not itself part of the state machine.
type SourceType string

const (
	SourceWebLike  SourceType = "web_like"
	SourceDiscLike SourceType = "disc_like"
	SourceUnknown  SourceType = "unknown"
)

// VideoMeta is the subset of a probe result the job record retains once a
// candidate has been probed (spec.md §3 Job "copied video metadata").
type VideoMeta struct {
	Codec       string `json:"codec,omitempty"`
	Bitrate     int64  `json:"bitrate,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	FrameRate   string `json:"frame_rate,omitempty"` // preserved as the original "num/den" string
	PixelFormat string `json:"pixel_format,omitempty"`
	BitDepth    int    `json:"bit_depth,omitempty"`
	IsHDR       bool   `json:"is_hdr,omitempty"`
}

// EncodeParams is the policy/synthesizer's chosen encoder parameters,
// retained on the job for auditing (spec.md §3).
type EncodeParams struct {
	CRF     int    `json:"crf,omitempty"`
	Preset  int    `json:"preset,omitempty"`
	Encoder string `json:"encoder,omitempty"`
}

// Job is the durable unit of work: the record of one attempted conversion
// of one source path (spec.md §3).
type Job struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	TempPath   string `json:"temp_path,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`

	OriginalBytes int64 `json:"original_bytes,omitempty"`
	NewBytes      int64 `json:"new_bytes,omitempty"`

	SourceType SourceType `json:"source_type,omitempty"`

	Video  VideoMeta    `json:"video,omitempty"`
	Encode EncodeParams `json:"encode,omitempty"`
}

// ErrInvalidJob is returned by Validate when a persisted record would
// violate one of spec.md §3's invariants.
var ErrInvalidJob = errors.New("job invariant violated")

// Clone returns a copy safe to hand to a reader while the original
// continues to be mutated by its owning controller.
func (j *Job) Clone() *Job {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}

// Validate checks the invariants spec.md §3 places on a persisted record:
// monotonic timestamps, and required fields for terminal statuses.
func (j *Job) Validate() error {
	if j.StartedAt != nil && j.StartedAt.Before(j.CreatedAt) {
		return wrapInvariant("started_at precedes created_at")
	}
	if j.FinishedAt != nil && j.StartedAt != nil && j.FinishedAt.Before(*j.StartedAt) {
		return wrapInvariant("finished_at precedes started_at")
	}
	switch j.Status {
	case StatusSuccess:
		if j.OriginalBytes == 0 || j.NewBytes == 0 {
			return wrapInvariant("success job missing byte counts")
		}
	case StatusFailed, StatusSkipped:
		if j.Reason == "" {
			return wrapInvariant("failed/skipped job missing reason")
		}
	}
	return nil
}

func wrapInvariant(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidJob, detail)
}
