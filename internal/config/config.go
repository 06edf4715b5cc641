// Package config loads and validates the daemon's configuration document.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Encoder identifies one of the three supported AV1 software encoders.
type Encoder string

const (
	EncoderPrimary   Encoder = "primary"   // libsvtav1
	EncoderSecondary Encoder = "secondary" // libaom-av1
	EncoderTertiary  Encoder = "tertiary"  // librav1e
)

// QualityTier selects how aggressively the policy engine trims preset/CRF.
type QualityTier string

const (
	QualityHigh     QualityTier = "high"
	QualityVeryHigh QualityTier = "very_high"
)

// Config holds every recognized configuration option (spec.md §3).
type Config struct {
	// LibraryRoots are the directory trees the scanner walks, in order.
	LibraryRoots []string `yaml:"library_roots"`

	// MinSourceBytes is the minimum source file size eligible for encoding.
	// Files at or below this size are permanently skipped.
	MinSourceBytes int64 `yaml:"min_source_bytes"`

	// MaxSizeRatio is the maximum output/input byte ratio accepted by the
	// size gate, in (0, 1]. Smaller means more aggressive compression required.
	MaxSizeRatio float64 `yaml:"max_size_ratio"`

	// ScanIntervalSeconds is how often the scheduler restarts a scan cycle.
	ScanIntervalSeconds int `yaml:"scan_interval_seconds"`

	// JobStateDir holds one JSON document per job (the durable record-of-truth).
	JobStateDir string `yaml:"job_state_dir"`

	// TempDir is where in-progress encoder output is written. Empty means
	// "sibling of the source file".
	TempDir string `yaml:"temp_dir"`

	// MaxConcurrentJobs bounds the number of candidates past PLANNING at once.
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`

	// PreferredEncoder selects which AV1 encoder the policy/synthesizer target.
	PreferredEncoder Encoder `yaml:"preferred_encoder"`

	// QualityTier adjusts preset aggressiveness (spec.md §4.5).
	QualityTier QualityTier `yaml:"quality_tier"`

	// KeepOriginal, when true, retains the renamed backup after a successful
	// replacement instead of deleting it.
	KeepOriginal bool `yaml:"keep_original"`

	// WriteReasonSidecars controls whether `.why.txt` files are written
	// alongside `.av1skip` markers.
	WriteReasonSidecars bool `yaml:"write_reason_sidecars"`

	// FFmpegPath and FFprobePath locate the external media-processing binary
	// (spec.md §6 treats it as a single opaque binary with both entry points).
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// DurationToleranceSeconds is the validator's duration-drift tolerance
	// (spec.md §9 Open Question: taken as a configurable constant).
	DurationToleranceSeconds float64 `yaml:"duration_tolerance_seconds"`

	// LogLevel controls logging verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LibraryRoots:             []string{"/media"},
		MinSourceBytes:           2 << 30, // 2 GiB
		MaxSizeRatio:             0.85,
		ScanIntervalSeconds:      3600,
		JobStateDir:              "/var/lib/av1janitor/jobs",
		TempDir:                  "",
		MaxConcurrentJobs:        1,
		PreferredEncoder:         EncoderPrimary,
		QualityTier:              QualityHigh,
		KeepOriginal:             false,
		WriteReasonSidecars:      true,
		FFmpegPath:               "ffmpeg",
		FFprobePath:              "ffprobe",
		DurationToleranceSeconds: 2.0,
		LogLevel:                 "info",
	}
}

// Load reads config from a YAML document, applying defaults for missing
// values. A missing file is not an error: a starter file is written with
// defaults and returned, matching the teacher's first-run behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if saveErr := cfg.Save(path); saveErr != nil {
				fmt.Printf("warning: could not create config file: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.LibraryRoots) == 0 {
		c.LibraryRoots = []string{"/media"}
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.MaxConcurrentJobs < 1 {
		c.MaxConcurrentJobs = 1
	}
	if c.ScanIntervalSeconds <= 0 {
		c.ScanIntervalSeconds = 3600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DurationToleranceSeconds <= 0 {
		c.DurationToleranceSeconds = 2.0
	}
	if c.PreferredEncoder == "" {
		c.PreferredEncoder = EncoderPrimary
	}
	if c.QualityTier == "" {
		c.QualityTier = QualityHigh
	}
}

// Validate rejects configurations that would violate a pipeline invariant.
func (c *Config) Validate() error {
	if c.MaxSizeRatio <= 0 || c.MaxSizeRatio > 1 {
		return fmt.Errorf("max_size_ratio must be in (0, 1], got %v", c.MaxSizeRatio)
	}
	switch c.PreferredEncoder {
	case EncoderPrimary, EncoderSecondary, EncoderTertiary:
	default:
		return fmt.Errorf("preferred_encoder must be primary, secondary, or tertiary, got %q", c.PreferredEncoder)
	}
	switch c.QualityTier {
	case QualityHigh, QualityVeryHigh:
	default:
		return fmt.Errorf("quality_tier must be high or very_high, got %q", c.QualityTier)
	}
	if c.JobStateDir == "" {
		return fmt.Errorf("job_state_dir must be set")
	}
	return nil
}

// Save writes the config to a YAML document, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetTempDir returns the directory in which temp output for sourcePath
// should be written. Empty TempDir means "sibling of the source file".
func (c *Config) GetTempDir(sourcePath string) string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return filepath.Dir(sourcePath)
}
