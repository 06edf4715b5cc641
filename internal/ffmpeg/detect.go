package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// minMajorVersion is the lowest major version of the encoder binary this
// daemon is willing to drive (spec.md §6).
const minMajorVersion = 8

// libsvtav1, libaomAV1, and librav1e are the capability-list substrings the
// binary advertises for the three supported AV1 software encoders.
const (
	libsvtav1 = "libsvtav1"
	libaomAV1 = "libaom-av1"
	librav1e  = "librav1e"
)

// EncoderName maps a configured encoder preference to the ffmpeg -c:v value.
func EncoderName(which string) string {
	switch which {
	case "primary":
		return libsvtav1
	case "secondary":
		return libaomAV1
	case "tertiary":
		return librav1e
	default:
		return libsvtav1
	}
}

// CheckVersion runs ffmpegPath -version and requires the major version
// token on the first line to be >= minMajorVersion.
func CheckVersion(ctx context.Context, ffmpegPath string) (major int, err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath, "-version")
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBinaryMissing, err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	if !scanner.Scan() {
		return 0, fmt.Errorf("%w: empty version output", ErrBinaryMissing)
	}
	firstLine := scanner.Text()
	fields := strings.Fields(firstLine)

	// Expect a field like "ffmpeg" "version" "8.0" ...; scan for the first
	// field whose leading run of digits parses as a version major.
	for _, f := range fields {
		digits := leadingDigits(f)
		if digits == "" {
			continue
		}
		major, convErr := strconv.Atoi(digits)
		if convErr != nil {
			continue
		}
		if major < minMajorVersion {
			return major, fmt.Errorf("%w: found %d, require >= %d", ErrVersionTooOld, major, minMajorVersion)
		}
		return major, nil
	}
	return 0, fmt.Errorf("%w: could not parse version from %q", ErrBinaryMissing, firstLine)
}

func leadingDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// AvailableAV1Encoders runs ffmpegPath -encoders and returns which of the
// three supported AV1 encoders appear in its capability listing.
func AvailableAV1Encoders(ctx context.Context, ffmpegPath string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath, "-encoders", "-hide_banner")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBinaryMissing, err)
	}

	listing := string(out)
	found := map[string]bool{
		libsvtav1: strings.Contains(listing, libsvtav1),
		libaomAV1: strings.Contains(listing, libaomAV1),
		librav1e:  strings.Contains(listing, librav1e),
	}
	if !found[libsvtav1] && !found[libaomAV1] && !found[librav1e] {
		return found, ErrNoAV1Encoder
	}
	return found, nil
}
