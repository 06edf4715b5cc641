package classify

import "testing"

func TestClassify_WebTokenWins(t *testing.T) {
	r := Classify(Input{Path: "/media/Show.S01E01.WEBRip.1080p.mkv", Height: 1080})
	if r.Class != WebLike {
		t.Fatalf("Class = %v, want WebLike (scores web=%d disc=%d)", r.Class, r.WebScore, r.DiscScore)
	}
}

func TestClassify_DiscTokenWins(t *testing.T) {
	r := Classify(Input{Path: "/media/Movie.2020.BluRay.REMUX.mkv", Height: 1080})
	if r.Class != DiscLike {
		t.Fatalf("Class = %v, want DiscLike", r.Class)
	}
}

func TestClassify_EqualScoresUnknown(t *testing.T) {
	r := Classify(Input{Path: "/media/movie.mkv", Height: 720})
	if r.Class != Unknown {
		t.Fatalf("Class = %v, want Unknown", r.Class)
	}
}

func TestClassify_LowBitrate4KIsWeb(t *testing.T) {
	r := Classify(Input{Path: "/media/movie.mkv", Height: 2160, Bitrate: 8_000_000})
	if r.Class != WebLike {
		t.Fatalf("Class = %v, want WebLike, reasons=%v", r.Class, r.Reasons)
	}
}

func TestClassify_HighBitrate4KIsDisc(t *testing.T) {
	r := Classify(Input{Path: "/media/movie.mkv", Height: 2160, Bitrate: 50_000_000})
	if r.Class != DiscLike {
		t.Fatalf("Class = %v, want DiscLike, reasons=%v", r.Class, r.Reasons)
	}
}

func TestClassify_MidBitrate4KIsNotDisc(t *testing.T) {
	// 20 Mbps at 2160p sits below the 2160p disc ceiling (>40 Mbps) and
	// must not fall through into the 1080p ceiling (>15 Mbps), which would
	// wrongly award it a disc point.
	r := Classify(Input{Path: "/media/movie.mkv", Height: 2160, Bitrate: 20_000_000})
	if r.DiscScore != 0 {
		t.Fatalf("DiscScore = %d, want 0, reasons=%v", r.DiscScore, r.Reasons)
	}
}

func TestClassify_LargeFileSizeIsDisc(t *testing.T) {
	r := Classify(Input{Path: "/media/movie.mkv", Height: 1080, FileBytes: 25 << 30})
	if r.Class != DiscLike {
		t.Fatalf("Class = %v, want DiscLike", r.Class)
	}
}

func TestClassify_VP9BumpsWeb(t *testing.T) {
	r := Classify(Input{Path: "/media/movie.mkv", Height: 1080, VideoCodec: "vp9"})
	if r.Class != WebLike {
		t.Fatalf("Class = %v, want WebLike", r.Class)
	}
}

func TestClassify_ReasonsRecorded(t *testing.T) {
	r := Classify(Input{Path: "/media/Show.WEBRip.mkv", Height: 1080})
	if len(r.Reasons) == 0 {
		t.Fatal("expected at least one reason")
	}
}
