// Package classify scores a candidate as WebLike or DiscLike in origin,
// from its path tokens and probed bitrate/resolution (spec.md §4.4).
package classify

import (
	"fmt"
	"strings"
)

// Class is the tagged classification result.
type Class string

const (
	WebLike  Class = "web_like"
	DiscLike Class = "disc_like"
	Unknown  Class = "unknown"
)

// webTokens and discTokens are matched case-insensitively as substrings of
// the candidate's full path.
var webTokens = []string{"WEB", "WEBRIP", "WEBDL", "WEB-DL", "NF", "AMZN", "DSNP", "HULU", "ATVP"}
var discTokens = []string{"BLURAY", "BLU-RAY", "REMUX", "BDMV", "UHD"}

const tokenScore = 10
const heuristicScore = 5

// Input bundles the metadata the classifier scores against.
type Input struct {
	Path       string
	Bitrate    int64 // bits/sec, 0 if unknown
	Height     int
	FileBytes  int64
	VideoCodec string
}

// Result is the classifier's tagged output plus its numeric scores and the
// ordered list of reasons that produced them.
type Result struct {
	Class     Class
	WebScore  int
	DiscScore int
	Reasons   []string
}

const giB = 1 << 30

// Classify scores in Input and returns the tagged classification.
func Classify(in Input) Result {
	r := Result{}

	upper := strings.ToUpper(in.Path)
	for _, tok := range webTokens {
		if strings.Contains(upper, tok) {
			r.WebScore += tokenScore
			r.Reasons = append(r.Reasons, fmt.Sprintf("path token %q (+%d web)", tok, tokenScore))
		}
	}
	for _, tok := range discTokens {
		if strings.Contains(upper, tok) {
			r.DiscScore += tokenScore
			r.Reasons = append(r.Reasons, fmt.Sprintf("path token %q (+%d disc)", tok, tokenScore))
		}
	}

	switch {
	case in.Height >= 2160 && in.Bitrate > 0 && in.Bitrate < 10_000_000:
		r.WebScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("bitrate %d bps below 2160p web floor (+%d web)", in.Bitrate, heuristicScore))
	case in.Height >= 1080 && in.Bitrate > 0 && in.Bitrate < 5_000_000:
		r.WebScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("bitrate %d bps below 1080p web floor (+%d web)", in.Bitrate, heuristicScore))
	}

	switch {
	case in.Height >= 2160 && in.Bitrate > 40_000_000:
		r.DiscScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("bitrate %d bps above 2160p disc ceiling (+%d disc)", in.Bitrate, heuristicScore))
	case in.Height >= 1080 && in.Height < 2160 && in.Bitrate > 15_000_000:
		r.DiscScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("bitrate %d bps above 1080p disc ceiling (+%d disc)", in.Bitrate, heuristicScore))
	}
	if in.FileBytes > 20*giB {
		r.DiscScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("file size %d bytes above 20 GiB (+%d disc)", in.FileBytes, heuristicScore))
	}

	if strings.EqualFold(in.VideoCodec, "vp9") {
		r.WebScore += heuristicScore
		r.Reasons = append(r.Reasons, fmt.Sprintf("codec vp9 (+%d web)", heuristicScore))
	}

	switch {
	case r.WebScore > r.DiscScore:
		r.Class = WebLike
	case r.DiscScore > r.WebScore:
		r.Class = DiscLike
	default:
		r.Class = Unknown
	}
	return r
}
