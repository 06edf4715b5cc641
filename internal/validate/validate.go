// Package validate re-probes an encoder's temporary output and enforces the
// stream-count and duration contracts an output must satisfy before it is
// allowed to replace the source (spec.md §4.8).
package validate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gwlsn/av1janitor/internal/ffmpeg"
)

// ErrWrongStreamCount is returned when the output does not contain exactly
// one video stream.
var ErrWrongStreamCount = errors.New("output does not contain exactly one video stream")

// ErrWrongCodec is returned when the output's video stream is not encoded
// in the target codec.
var ErrWrongCodec = errors.New("output video stream is not the target codec")

// ErrDurationDrift is returned when the output's duration differs from the
// original probe's duration by more than the configured tolerance.
var ErrDurationDrift = errors.New("output duration drifted from source")

// Result carries the re-probe so callers can persist it on the job record
// without probing a third time.
type Result struct {
	Probe *ffmpeg.ProbeResult
}

// Validate re-probes outputPath and checks it against originalDuration and
// targetCodec within toleranceSeconds (spec.md §4.8, §9 duration-tolerance
// open question resolved as a configurable constant).
func Validate(ctx context.Context, prober *ffmpeg.Prober, outputPath string, originalDuration time.Duration, targetCodec string, toleranceSeconds float64) (*Result, error) {
	probe, err := prober.Probe(ctx, outputPath)
	if err != nil {
		return nil, fmt.Errorf("validate: reprobe: %w", err)
	}

	videoCount := 0
	var codec string
	for _, s := range probe.Streams {
		if s.CodecType == "video" {
			videoCount++
			codec = s.CodecName
		}
	}
	if videoCount != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrWrongStreamCount, videoCount)
	}
	if codec != targetCodec {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongCodec, codec, targetCodec)
	}

	driftSeconds := math.Abs((probe.Duration - originalDuration).Seconds())
	if driftSeconds > toleranceSeconds {
		return nil, fmt.Errorf("%w: drift %.2fs exceeds tolerance %.2fs", ErrDurationDrift, driftSeconds, toleranceSeconds)
	}

	return &Result{Probe: probe}, nil
}
