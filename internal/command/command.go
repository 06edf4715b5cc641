// Package command synthesizes the external encoder binary's argument
// vector from a probe result and the policy engine's computed parameters
// (spec.md §4.6).
package command

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/gwlsn/av1janitor/internal/config"
	"github.com/gwlsn/av1janitor/internal/ffmpeg"
	"github.com/gwlsn/av1janitor/internal/policy"
)

// muxingQueueSize is raised above ffmpeg's default to tolerate complex,
// many-stream containers (remuxes with many subtitle/audio tracks).
const muxingQueueSize = 9999

// Input bundles everything the synthesizer needs to build one argument
// vector for one candidate.
type Input struct {
	SourcePath string
	OutputPath string
	Probe      *ffmpeg.ProbeResult
	VideoIndex int // absolute index of the chosen main video stream
	Params     policy.Params
	IsWebLike  bool
	Encoder    config.Encoder
}

// Synthesize builds the full ordered argument vector for the external
// encoder binary (everything after the binary name itself).
func Synthesize(in Input) []string {
	var args []string

	if in.IsWebLike {
		// Timestamp-safety: WEB sources frequently carry broken or
		// discontinuous PTS/DTS; regenerate and ignore bad ones up front.
		args = append(args, "-fflags", "+genpts+igndts")
	}
	args = append(args, "-i", in.SourcePath)

	args = append(args, "-map", "0")
	args = append(args, "-map", "-0:d") // exclude data streams unconditionally

	for _, idx := range excludedStreamIndices(in.Probe, in.VideoIndex) {
		args = append(args, "-map", fmt.Sprintf("-0:%d", idx))
	}

	args = append(args, "-map_chapters", "0", "-map_metadata", "0")

	if in.Params.PadFilter {
		args = append(args, "-vf", in.Params.PadFilterExpr)
	}

	args = append(args, "-c:a", "copy", "-c:s", "copy")
	args = append(args, "-max_muxing_queue_size", fmt.Sprintf("%d", muxingQueueSize))

	args = append(args, encoderTail(in)...)

	args = append(args, "-y", in.OutputPath)
	return args
}

// excludedStreamIndices returns every stream that must NOT appear in the
// output: attached-picture substreams, non-main video streams, and
// audio/subtitle streams tagged ru/rus.
func excludedStreamIndices(p *ffmpeg.ProbeResult, mainVideo int) []int {
	excluded := map[int]bool{}
	for _, idx := range p.AttachedPictureStreams() {
		excluded[idx] = true
	}
	for _, idx := range p.ExcludedLanguageStreams() {
		excluded[idx] = true
	}
	for _, s := range p.Streams {
		if s.CodecType == "video" && s.Index != mainVideo {
			excluded[s.Index] = true
		}
	}
	out := make([]int, 0, len(excluded))
	for i := range excluded {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func encoderTail(in Input) []string {
	switch in.Encoder {
	case config.EncoderSecondary:
		return secondaryTail(in.Params)
	case config.EncoderTertiary:
		return tertiaryTail()
	default:
		return primaryTail(in.Params)
	}
}

// primaryTail targets libsvtav1: constant-quality mode, computed CRF and
// preset, automatic thread count via the "lp=0" (let the library pick the
// logical processor count) parameter.
func primaryTail(p policy.Params) []string {
	return []string{
		"-c:v", "libsvtav1",
		"-crf", fmt.Sprintf("%d", p.CRF),
		"-preset", fmt.Sprintf("%d", p.Preset),
		"-svtav1-params", "lp=0",
	}
}

// secondaryTail targets libaom-av1: constant-quality mode, row-based
// multithreading, resolution-specific tile layout and cpu-used, explicit
// thread count (aom does not auto-detect the way svt-av1 does).
func secondaryTail(p policy.Params) []string {
	return []string{
		"-c:v", "libaom-av1",
		"-crf", fmt.Sprintf("%d", p.CRF),
		"-b:v", "0",
		"-row-mt", "1",
		"-tiles", p.TileLayout,
		"-cpu-used", fmt.Sprintf("%d", p.CPUUsed),
		"-threads", fmt.Sprintf("%d", runtime.NumCPU()),
	}
}

// tertiaryTail targets librav1e: fixed quantizer and speed, independent of
// the policy engine's per-resolution tuning (rav1e's own rate control
// picks up the slack).
func tertiaryTail() []string {
	return []string{
		"-c:v", "librav1e",
		"-qp", "80",
		"-speed", "6",
	}
}
