package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gwlsn/av1janitor/internal/config"
	"github.com/gwlsn/av1janitor/internal/controller"
	"github.com/gwlsn/av1janitor/internal/ffmpeg"
	"github.com/gwlsn/av1janitor/internal/jobindex"
	"github.com/gwlsn/av1janitor/internal/jobs"
	"github.com/gwlsn/av1janitor/internal/jobstore"
	"github.com/gwlsn/av1janitor/internal/logger"
	"github.com/gwlsn/av1janitor/internal/scan"
	"github.com/gwlsn/av1janitor/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (required)")
	once := flag.Bool("once", false, "Run a single scan cycle and exit, instead of running forever")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "av1janitord: -config is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "av1janitord: loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	fmt.Println("av1janitord")
	fmt.Printf("  config:          %s\n", *configPath)
	fmt.Printf("  library roots:   %v\n", cfg.LibraryRoots)
	fmt.Printf("  job state dir:   %s\n", cfg.JobStateDir)
	fmt.Printf("  preferred enc:   %s\n", cfg.PreferredEncoder)
	fmt.Printf("  quality tier:    %s\n", cfg.QualityTier)
	fmt.Printf("  max size ratio:  %.2f\n", cfg.MaxSizeRatio)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	major, err := ffmpeg.CheckVersion(ctx, cfg.FFmpegPath)
	if err != nil {
		logger.Fatal("startup: ffmpeg version check failed", "error", err)
	}
	logger.Info("startup: ffmpeg version ok", "major", major)

	encoders, err := ffmpeg.AvailableAV1Encoders(ctx, cfg.FFmpegPath)
	if err != nil {
		logger.Fatal("startup: no AV1 software encoder available", "error", err)
	}
	logger.Info("startup: AV1 encoders detected", "encoders", encoders)

	if err := os.MkdirAll(cfg.JobStateDir, 0755); err != nil {
		logger.Fatal("startup: job state dir is not writable", "dir", cfg.JobStateDir, "error", err)
	}
	probe := filepath.Join(cfg.JobStateDir, ".av1janitor-write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		logger.Fatal("startup: job state dir is not writable", "dir", cfg.JobStateDir, "error", err)
	}
	os.Remove(probe)

	store, err := jobstore.New(cfg.JobStateDir)
	if err != nil {
		logger.Fatal("startup: failed to open job store", "error", err)
	}

	index, err := jobindex.Open(filepath.Join(cfg.JobStateDir, "index.db"))
	if err != nil {
		logger.Fatal("startup: failed to open job index", "error", err)
	}
	defer index.Close()

	existing, err := store.LoadAll()
	if err != nil {
		logger.Fatal("startup: failed to load existing job records", "error", err)
	}
	for _, j := range existing {
		if j.Status != jobs.StatusRunning {
			continue
		}
		logger.Warn("startup: job was still running when the daemon stopped; marking it failed", "job_id", j.ID, "path", j.SourcePath)
		finished := time.Now().UTC()
		j.FinishedAt = &finished
		j.Status = jobs.StatusFailed
		j.Reason = "interrupted: daemon stopped while the job was running"
		if err := store.Save(j); err != nil {
			logger.Error("startup: failed to finalize interrupted job", "job_id", j.ID, "error", err)
		}
	}
	if err := index.Rebuild(existing); err != nil {
		logger.Fatal("startup: failed to rebuild job index", "error", err)
	}
	logger.Info("startup: job index rebuilt", "jobs", len(existing))

	prober := ffmpeg.NewProber(cfg.FFprobePath)
	ctrl := controller.New(cfg, prober, store, index)
	scanner := scan.New(cfg.LibraryRoots)
	sched := scheduler.New(scanner, ctrl, cfg.MaxConcurrentJobs, time.Duration(cfg.ScanIntervalSeconds)*time.Second)

	if *once {
		sched.RunOnce(ctx)
		logStats(index)
		fmt.Println("av1janitord: single scan cycle complete")
		return
	}

	fmt.Println("av1janitord: running, press Ctrl+C to stop")
	if err := sched.Run(ctx); err != nil {
		logger.Info("av1janitord: shutting down", "reason", err)
	}
	logStats(index)
}

// logStats reports the index's aggregate job counters so an operator watching
// logs sees cumulative progress without needing to query the dashboard.
func logStats(index *jobindex.Index) {
	stats, err := index.Stats()
	if err != nil {
		logger.Error("shutdown: failed to read job index stats", "error", err)
		return
	}
	logger.Info("job index stats",
		"pending", stats.Pending, "running", stats.Running,
		"success", stats.Success, "failed", stats.Failed, "skipped", stats.Skipped,
		"total_bytes_saved", stats.TotalSaved)
}
