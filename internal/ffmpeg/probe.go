package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Stream is one entry of ffprobe's ordered streams array.
type Stream struct {
	Index            int
	CodecType        string // "video", "audio", "subtitle"
	CodecName        string // lowercased
	Width            int
	Height           int
	Bitrate          int64
	RFrameRate       string // original "num/den" string, preserved verbatim
	PixelFormat      string
	BitsPerRawSample int
	Default          bool // disposition.default == 1
	AttachedPic      bool // disposition.attached_pic == 1
	Language         string
}

// ProbeResult is the immutable snapshot produced by the external inspection
// binary for one file: format-level fields plus the ordered stream list.
type ProbeResult struct {
	Path          string
	Duration      time.Duration
	SizeBytes     int64
	FormatBitrate int64
	Streams       []Stream
}

// MainVideoStream selects the stream the rest of the pipeline treats as "the"
// video stream: the first video stream carrying the default disposition, or
// else the first video stream in index order. Returns false if none exists.
func (p *ProbeResult) MainVideoStream() (Stream, bool) {
	var firstVideo *Stream
	for i := range p.Streams {
		s := &p.Streams[i]
		if s.CodecType != "video" {
			continue
		}
		if firstVideo == nil {
			firstVideo = s
		}
		if s.Default {
			return *s, true
		}
	}
	if firstVideo != nil {
		return *firstVideo, true
	}
	return Stream{}, false
}

// ExcludedLanguageStreams returns the absolute indices of every audio or
// subtitle stream tagged with the Russian language code, which the command
// synthesizer excludes from the output.
func (p *ProbeResult) ExcludedLanguageStreams() []int {
	var out []int
	for _, s := range p.Streams {
		if s.CodecType != "audio" && s.CodecType != "subtitle" {
			continue
		}
		lang := strings.ToLower(s.Language)
		if lang == "ru" || lang == "rus" {
			out = append(out, s.Index)
		}
	}
	return out
}

// AttachedPictureStreams returns the absolute indices of streams disposed as
// attached pictures (embedded cover art), excluded from every output.
func (p *ProbeResult) AttachedPictureStreams() []int {
	var out []int
	for _, s := range p.Streams {
		if s.AttachedPic {
			out = append(out, s.Index)
		}
	}
	return out
}

// probeDoc mirrors the raw JSON schema described in spec.md §6.
type probeDoc struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Index            int    `json:"index"`
		CodecType        string `json:"codec_type"`
		CodecName        string `json:"codec_name"`
		Width            int    `json:"width"`
		Height           int    `json:"height"`
		BitRate          string `json:"bit_rate"`
		RFrameRate       string `json:"r_frame_rate"`
		PixFmt           string `json:"pix_fmt"`
		BitsPerRawSample string `json:"bits_per_raw_sample"`
		Disposition      map[string]int `json:"disposition"`
		Tags             struct {
			Language string `json:"language"`
		} `json:"tags"`
	} `json:"streams"`
}

// Prober wraps the external inspection binary (ffprobe).
type Prober struct {
	Path string
}

// NewProber returns a Prober invoking the binary at path.
func NewProber(path string) *Prober {
	return &Prober{Path: path}
}

// Probe invokes the inspection binary against path and parses its JSON
// dump of container format and stream metadata (spec.md §4.3).
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: %s", ErrProbeExec, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: %v", ErrProbeExec, err)
	}

	var doc probeDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeUnparseable, err)
	}

	result := &ProbeResult{Path: path}
	if doc.Format.Size != "" {
		result.SizeBytes, _ = strconv.ParseInt(doc.Format.Size, 10, 64)
	}
	if doc.Format.BitRate != "" {
		result.FormatBitrate, _ = strconv.ParseInt(doc.Format.BitRate, 10, 64)
	}
	if doc.Format.Duration != "" {
		secs, _ := strconv.ParseFloat(doc.Format.Duration, 64)
		result.Duration = time.Duration(secs * float64(time.Second))
	}

	for _, s := range doc.Streams {
		stream := Stream{
			Index:       s.Index,
			CodecType:   s.CodecType,
			CodecName:   strings.ToLower(s.CodecName),
			Width:       s.Width,
			Height:      s.Height,
			RFrameRate:  s.RFrameRate,
			PixelFormat: s.PixFmt,
			Language:    s.Tags.Language,
		}
		if s.BitRate != "" {
			stream.Bitrate, _ = strconv.ParseInt(s.BitRate, 10, 64)
		}
		if s.BitsPerRawSample != "" {
			stream.BitsPerRawSample, _ = strconv.Atoi(s.BitsPerRawSample)
		}
		if s.Disposition != nil {
			stream.Default = s.Disposition["default"] == 1
			stream.AttachedPic = s.Disposition["attached_pic"] == 1
		}
		result.Streams = append(result.Streams, stream)
	}

	return result, nil
}
