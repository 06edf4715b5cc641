package policy

import "testing"

func TestCompute_CRFStepsByHeight(t *testing.T) {
	cases := []struct {
		height int
		want   int
	}{
		{2160, 21},
		{1440, 22},
		{1080, 23},
		{720, 24},
	}
	for _, c := range cases {
		got := Compute(Input{Height: c.height, Width: c.height * 16 / 9, Bitrate: 100_000_000}).CRF
		if got != c.want {
			t.Errorf("height %d: CRF = %d, want %d", c.height, got, c.want)
		}
	}
}

func TestCompute_LowBitrateAddsOneToCRF(t *testing.T) {
	base := Compute(Input{Height: 1080, Width: 1920, Bitrate: 10_000_000}).CRF
	low := Compute(Input{Height: 1080, Width: 1920, Bitrate: 1_000_000}).CRF
	if low != base+1 {
		t.Errorf("low-bitrate CRF = %d, want %d", low, base+1)
	}
}

func TestCompute_VeryHighQualityReducesPreset(t *testing.T) {
	normal := Compute(Input{Height: 1080, Width: 1920}).Preset
	veryHigh := Compute(Input{Height: 1080, Width: 1920, VeryHighQuality: true}).Preset
	if veryHigh != normal-1 {
		t.Errorf("very-high preset = %d, want %d", veryHigh, normal-1)
	}
}

func TestCompute_PresetSaturatesAtZero(t *testing.T) {
	p := Compute(Input{Height: 2160, Width: 3840, VeryHighQuality: true})
	if p.Preset < 0 {
		t.Errorf("preset went negative: %d", p.Preset)
	}
}

func TestCompute_TileLayoutByHeight(t *testing.T) {
	cases := []struct {
		height int
		want   string
	}{
		{1080, "2x1"},
		{720, "2x1"},
		{1440, "2x2"},
		{2160, "2x2"},
		{4320, "3x2"},
	}
	for _, c := range cases {
		got := Compute(Input{Height: c.height, Width: 1920}).TileLayout
		if got != c.want {
			t.Errorf("height %d: TileLayout = %q, want %q", c.height, got, c.want)
		}
	}
}

func TestCompute_CPUUsedByHeight(t *testing.T) {
	cases := []struct {
		height int
		want   int
	}{
		{2160, 3},
		{1080, 4},
		{720, 5},
	}
	for _, c := range cases {
		got := Compute(Input{Height: c.height, Width: 1920}).CPUUsed
		if got != c.want {
			t.Errorf("height %d: CPUUsed = %d, want %d", c.height, got, c.want)
		}
	}
}

func TestCompute_PadFilterNecessity(t *testing.T) {
	cases := []struct {
		name    string
		in      Input
		wantPad bool
	}{
		{"even dims not web", Input{Width: 1920, Height: 1080, IsWebLike: false}, false},
		{"web like even dims", Input{Width: 1920, Height: 1080, IsWebLike: true}, true},
		{"odd width", Input{Width: 1921, Height: 1080}, true},
		{"odd height", Input{Width: 1920, Height: 1081}, true},
	}
	for _, c := range cases {
		got := Compute(c.in).PadFilter
		if got != c.wantPad {
			t.Errorf("%s: PadFilter = %v, want %v", c.name, got, c.wantPad)
		}
	}
}

func TestCompute_TimestampSafeOnlyWhenWebLike(t *testing.T) {
	if Compute(Input{Width: 1920, Height: 1080, IsWebLike: true}).TimestampSafe != true {
		t.Error("expected TimestampSafe for WebLike")
	}
	if Compute(Input{Width: 1920, Height: 1080, IsWebLike: false}).TimestampSafe != false {
		t.Error("expected no TimestampSafe for non-WebLike")
	}
}
