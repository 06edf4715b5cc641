package ffmpeg

import "errors"

var (
	// ErrProbeExec is returned when the inspection binary itself fails to run
	// or exits non-zero.
	ErrProbeExec = errors.New("probe exec failed")

	// ErrProbeUnparseable is returned when the inspection binary's stdout is
	// not the expected JSON document.
	ErrProbeUnparseable = errors.New("probe output unparseable")

	// ErrBinaryMissing is a startup-fatal condition: the encoder/prober
	// binary could not be located or executed at all.
	ErrBinaryMissing = errors.New("encoder binary missing")

	// ErrVersionTooOld is a startup-fatal condition: the binary's reported
	// major version is below the required minimum.
	ErrVersionTooOld = errors.New("encoder binary version too old")

	// ErrNoAV1Encoder is a startup-fatal condition: none of the three
	// supported AV1 encoders are present in the binary's capability list.
	ErrNoAV1Encoder = errors.New("no AV1 encoder available")
)
