package command

import (
	"strings"
	"testing"

	"github.com/gwlsn/av1janitor/internal/config"
	"github.com/gwlsn/av1janitor/internal/ffmpeg"
	"github.com/gwlsn/av1janitor/internal/policy"
)

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

func basicProbe() *ffmpeg.ProbeResult {
	return &ffmpeg.ProbeResult{
		Streams: []ffmpeg.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, Default: true},
			{Index: 1, CodecType: "audio", CodecName: "aac", Language: "eng"},
			{Index: 2, CodecType: "audio", CodecName: "ac3", Language: "rus"},
			{Index: 3, CodecType: "subtitle", CodecName: "subrip", Language: "ru"},
		},
	}
}

func TestSynthesize_PrimaryEncoderBasics(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080, Bitrate: 8_000_000})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderPrimary,
	})

	if !containsPair(args, "-c:v", "libsvtav1") {
		t.Error("expected -c:v libsvtav1")
	}
	if !containsPair(args, "-i", "/media/movie.mkv") {
		t.Error("expected -i source")
	}
	if !strings.HasSuffix(args[len(args)-1], ".tmp") {
		t.Errorf("expected output path last, got %v", args)
	}
}

func TestSynthesize_ExcludesRussianStreams(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderPrimary,
	})

	if !contains(args, "-0:2") || !contains(args, "-0:3") {
		t.Errorf("expected exclusion of streams 2 and 3 (ru/rus), got %v", args)
	}
}

func TestSynthesize_SecondaryEncoderTail(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderSecondary,
	})
	if !containsPair(args, "-c:v", "libaom-av1") {
		t.Error("expected -c:v libaom-av1")
	}
	if !contains(args, "-row-mt") {
		t.Error("expected row-mt flag")
	}
}

func TestSynthesize_TertiaryEncoderTail(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderTertiary,
	})
	if !containsPair(args, "-c:v", "librav1e") {
		t.Error("expected -c:v librav1e")
	}
}

func TestSynthesize_PadFilterPresentWhenRequired(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1921, Height: 1080})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderPrimary,
	})
	if !contains(args, "-vf") {
		t.Error("expected -vf pad filter for odd width")
	}
}

func TestSynthesize_WebLikeAddsTimestampFlags(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080, IsWebLike: true})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		IsWebLike:  true,
		Encoder:    config.EncoderPrimary,
	})
	if !contains(args, "-fflags") {
		t.Error("expected -fflags timestamp safety flags for WebLike source")
	}
}

func TestSynthesize_AudioSubtitleCopy(t *testing.T) {
	p := policy.Compute(policy.Input{Width: 1920, Height: 1080})
	args := Synthesize(Input{
		SourcePath: "/media/movie.mkv",
		OutputPath: "/media/movie.mkv.tmp",
		Probe:      basicProbe(),
		VideoIndex: 0,
		Params:     p,
		Encoder:    config.EncoderPrimary,
	})
	if !containsPair(args, "-c:a", "copy") || !containsPair(args, "-c:s", "copy") {
		t.Error("expected passthrough audio/subtitle codecs")
	}
}
