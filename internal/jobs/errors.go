package jobs

import "errors"

// Sentinel errors for the pipeline's error taxonomy (spec.md §7).
// Checkable with errors.Is().
var (
	// ErrJobNotFound is returned by a Store when an id has no record.
	ErrJobNotFound = errors.New("job not found")

	// ErrProbeFailed marks a permanent-skip: the external inspection binary
	// exited non-zero or produced unparseable output.
	ErrProbeFailed = errors.New("probe failed")

	// ErrNoVideoStream marks a permanent-skip: the probe succeeded but no
	// stream qualifies as the main video stream.
	ErrNoVideoStream = errors.New("no video stream")

	// ErrTooSmall marks a permanent-skip: the source is at or below the
	// configured minimum size.
	ErrTooSmall = errors.New("source below minimum size")

	// ErrAlreadyTargetCodec marks a permanent-skip: the source is already
	// encoded in the target codec.
	ErrAlreadyTargetCodec = errors.New("source already target codec")

	// ErrSizeGateFailed marks a permanent-skip: the encoded output was not
	// sufficiently smaller than the source.
	ErrSizeGateFailed = errors.New("size gate rejected output")

	// ErrValidationFailed marks an encode-failure: the re-probed output did
	// not satisfy the validator's contract.
	ErrValidationFailed = errors.New("output validation failed")

	// ErrEncodeFailed marks an encode-failure: the external process exited
	// non-zero, produced no output, or was terminated by a signal.
	ErrEncodeFailed = errors.New("encode failed")

	// ErrCrossDevice signals that a rename crossed filesystem boundaries and
	// the copy-then-unlink fallback should be used.
	ErrCrossDevice = errors.New("cross-device rename")

	// ErrReplaceFailed marks a replacement-failure: a rename or copy step
	// failed during the atomic swap.
	ErrReplaceFailed = errors.New("replacement failed")

	// ErrCancelled marks a job finalized because the daemon is shutting down.
	ErrCancelled = errors.New("cancelled")

	// ErrUnstable signals the candidate should be deferred to the next scan
	// cycle rather than turned into a job at all.
	ErrUnstable = errors.New("file not yet stable")

	// ErrSkipMarked signals the candidate already carries a permanent skip
	// marker and must not be processed.
	ErrSkipMarked = errors.New("path carries skip marker")
)
