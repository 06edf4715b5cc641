// Package controller implements the per-candidate state machine that turns
// a scanned path into a replaced file, a permanent skip, or a recorded
// failure (spec.md §4.12). It is the glue between every other component.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gwlsn/av1janitor/internal/classify"
	"github.com/gwlsn/av1janitor/internal/command"
	"github.com/gwlsn/av1janitor/internal/config"
	"github.com/gwlsn/av1janitor/internal/executor"
	"github.com/gwlsn/av1janitor/internal/ffmpeg"
	"github.com/gwlsn/av1janitor/internal/jobindex"
	"github.com/gwlsn/av1janitor/internal/jobs"
	"github.com/gwlsn/av1janitor/internal/jobstore"
	"github.com/gwlsn/av1janitor/internal/logger"
	"github.com/gwlsn/av1janitor/internal/policy"
	"github.com/gwlsn/av1janitor/internal/replace"
	"github.com/gwlsn/av1janitor/internal/scan"
	"github.com/gwlsn/av1janitor/internal/sidecar"
	"github.com/gwlsn/av1janitor/internal/sizegate"
	"github.com/gwlsn/av1janitor/internal/validate"
)

// targetCodec is the codec identifier the validator requires of every
// successful output, and the identifier that short-circuits PROBING when a
// source is already encoded in it.
const targetCodec = "av1"

// Controller owns every in-flight job; exactly one Controller processes any
// given source path at a time (enforced by the scheduler admitting one
// goroutine per candidate and candidates being derived 1:1 from paths).
type Controller struct {
	Config *config.Config
	Prober *ffmpeg.Prober
	Store  *jobstore.Store
	Index  *jobindex.Index // optional; nil disables the read-index side effect
}

// New returns a Controller wired to its collaborators.
func New(cfg *config.Config, prober *ffmpeg.Prober, store *jobstore.Store, index *jobindex.Index) *Controller {
	return &Controller{Config: cfg, Prober: prober, Store: store, Index: index}
}

// Process runs one candidate through the full state machine. It never
// returns an error: every exit path writes a final job record instead of
// unwinding past the caller (spec.md §7 propagation policy).
func (c *Controller) Process(ctx context.Context, cand scan.Candidate) {
	if sidecar.HasSkip(cand.Path) {
		return // TERMINAL: no job record created for an already-skipped path.
	}

	if c.Index != nil {
		running, err := c.Index.HasJobForSource(cand.Path)
		if err != nil {
			logger.Error("controller: job index lookup failed", "path", cand.Path, "error", err)
		} else if running {
			return // another job is already in flight for this path this cycle.
		}
	}

	job := &jobs.Job{
		ID:         uuid.NewString(),
		SourcePath: cand.Path,
		CreatedAt:  time.Now().UTC(),
		Status:     jobs.StatusRunning,
	}
	started := time.Now().UTC()
	job.StartedAt = &started
	c.save(job)

	log := logger.Job(job.ID, job.SourcePath)

	probe, mainVideo, ok := c.probe(ctx, job, log)
	if !ok {
		return
	}

	if cand.Size <= c.Config.MinSourceBytes {
		c.skip(job, fmt.Sprintf("source size %d is at or below minimum %d bytes", cand.Size, c.Config.MinSourceBytes))
		return
	}
	if mainVideo.CodecName == targetCodec {
		c.skip(job, "source already encoded in target codec")
		return
	}

	if ctx.Err() != nil {
		c.cancel(job)
		return
	}

	// PLANNING
	cls := classify.Classify(classify.Input{
		Path:       cand.Path,
		Bitrate:    mainVideo.Bitrate,
		Height:     mainVideo.Height,
		FileBytes:  cand.Size,
		VideoCodec: mainVideo.CodecName,
	})
	params := policy.Compute(policy.Input{
		Width:           mainVideo.Width,
		Height:          mainVideo.Height,
		Bitrate:         mainVideo.Bitrate,
		IsWebLike:       cls.Class == classify.WebLike,
		VeryHighQuality: c.Config.QualityTier == config.QualityVeryHigh,
	})

	job.SourceType = sourceTypeOf(cls.Class)
	job.Video = jobs.VideoMeta{
		Codec:       mainVideo.CodecName,
		Bitrate:     mainVideo.Bitrate,
		Width:       mainVideo.Width,
		Height:      mainVideo.Height,
		FrameRate:   mainVideo.RFrameRate,
		PixelFormat: mainVideo.PixelFormat,
		BitDepth:    mainVideo.BitsPerRawSample,
		IsHDR:       isHDR(mainVideo),
	}
	job.Encode = jobs.EncodeParams{
		CRF:     params.CRF,
		Preset:  params.Preset,
		Encoder: ffmpeg.EncoderName(string(c.Config.PreferredEncoder)),
	}

	tempPath := tempOutputPath(cand.Path, c.Config.GetTempDir(cand.Path))
	job.TempPath = tempPath
	c.save(job)

	args := command.Synthesize(command.Input{
		SourcePath: cand.Path,
		OutputPath: tempPath,
		Probe:      probe,
		VideoIndex: mainVideo.Index,
		Params:     params,
		IsWebLike:  cls.Class == classify.WebLike,
		Encoder:    c.Config.PreferredEncoder,
	})

	// ENCODING
	if ctx.Err() != nil {
		c.cancel(job)
		return
	}
	result, err := executor.Run(ctx, c.Config.FFmpegPath, tempPath, args)
	if err != nil {
		if ctx.Err() != nil {
			c.cancel(job)
			return
		}
		reason := "encode failed"
		if result != nil && result.StderrTail != "" {
			reason = fmt.Sprintf("encode failed: %s", result.StderrTail)
		}
		c.fail(job, reason)
		return
	}

	// VALIDATING
	vr, err := validate.Validate(ctx, c.Prober, tempPath, probe.Duration, targetCodec, c.Config.DurationToleranceSeconds)
	if err != nil {
		removeFile(tempPath, log)
		c.fail(job, fmt.Sprintf("validation failed: %v", err))
		return
	}
	_ = vr

	// SIZE_GATING
	gate := sizegate.Evaluate(cand.Size, result.OutputSize, c.Config.MaxSizeRatio)
	if !gate.Pass {
		removeFile(tempPath, log)
		c.skip(job, sidecar.SizeGateReason(cand.Size, result.OutputSize, c.Config.MaxSizeRatio))
		return
	}

	// REPLACING (non-cancellable: no ctx is threaded through Swap)
	swapResult, err := replace.Swap(cand.Path, tempPath, c.Config.KeepOriginal)
	if err != nil {
		c.fail(job, fmt.Sprintf("replacement failed: %v", err))
		return
	}

	job.OriginalBytes = cand.Size
	job.NewBytes = result.OutputSize
	c.succeed(job)
	log.Info("replaced", "backup", swapResult.BackupPath, "backup_deleted", swapResult.BackupDeleted,
		"original_bytes", cand.Size, "new_bytes", result.OutputSize)
}

func (c *Controller) probe(ctx context.Context, job *jobs.Job, log *slog.Logger) (*ffmpeg.ProbeResult, ffmpeg.Stream, bool) {
	probe, err := c.Prober.Probe(ctx, job.SourcePath)
	if err != nil {
		c.skip(job, "probe failed")
		return nil, ffmpeg.Stream{}, false
	}
	mainVideo, ok := probe.MainVideoStream()
	if !ok {
		c.skip(job, "no video stream")
		return nil, ffmpeg.Stream{}, false
	}
	return probe, mainVideo, true
}

// isHDR reports whether stream's probed metadata signals HDR content. The
// probe schema (spec.md §6) carries no explicit HDR/transfer-characteristics
// field, so this relies on the same signal real-world tooling uses absent
// that metadata: a 10-bit-or-deeper pixel format, via either the bit depth
// ffprobe reports directly or the "p10le"/"p12le"-style suffix on pix_fmt.
func isHDR(stream ffmpeg.Stream) bool {
	if stream.BitsPerRawSample >= 10 {
		return true
	}
	pf := strings.ToLower(stream.PixelFormat)
	return strings.Contains(pf, "p10le") || strings.Contains(pf, "p12le") || strings.Contains(pf, "p16le")
}

func sourceTypeOf(c classify.Class) jobs.SourceType {
	switch c {
	case classify.WebLike:
		return jobs.SourceWebLike
	case classify.DiscLike:
		return jobs.SourceDiscLike
	default:
		return jobs.SourceUnknown
	}
}

func tempOutputPath(sourcePath, tempDir string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(tempDir, name+".av1janitor.partial"+ext)
}

func removeFile(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error("controller: failed to remove temp file", "path", path, "error", err)
	}
}

// skip finalizes job as permanently skipped and leaves a sidecar marker on
// the source path so future scan cycles never reconsider it.
func (c *Controller) skip(job *jobs.Job, reason string) {
	job.Reason = reason
	c.finalize(job, jobs.StatusSkipped)
	_ = sidecar.MarkSkip(job.SourcePath)
	if c.Config.WriteReasonSidecars {
		_ = sidecar.WriteReason(job.SourcePath, reason+"\n")
	}
}

func (c *Controller) fail(job *jobs.Job, reason string) {
	job.Reason = reason
	c.finalize(job, jobs.StatusFailed)
}

func (c *Controller) cancel(job *jobs.Job) {
	job.Reason = jobs.ErrCancelled.Error()
	c.finalize(job, jobs.StatusFailed)
}

func (c *Controller) succeed(job *jobs.Job) {
	c.finalize(job, jobs.StatusSuccess)
}

func (c *Controller) finalize(job *jobs.Job, status jobs.Status) {
	now := time.Now().UTC()
	job.FinishedAt = &now
	job.Status = status
	c.save(job)
}

func (c *Controller) save(job *jobs.Job) {
	if err := c.Store.Save(job); err != nil {
		logger.Error("controller: failed to persist job", "job_id", job.ID, "error", err)
		return
	}
	if c.Index != nil {
		if err := c.Index.Upsert(job); err != nil {
			logger.Error("controller: failed to update job index", "job_id", job.ID, "error", err)
		}
	}
}
