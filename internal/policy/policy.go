// Package policy translates probed video metadata and classification into
// concrete encoder parameters: CRF, preset, tile layout, cpu-used, and
// filter/flag decisions (spec.md §4.5).
package policy

// Params is the full set of parameters the command synthesizer consumes.
type Params struct {
	CRF           int
	Preset        int    // primary encoder preset (0-13, lower = slower/better)
	TileLayout    string // secondary encoder tile layout, e.g. "2x2"
	CPUUsed       int    // secondary encoder cpu-used
	PadFilter     bool
	PadFilterExpr string
	TimestampSafe bool
}

// Input bundles what the policy needs: probed dimensions/bitrate and the
// classifier's verdict.
type Input struct {
	Width           int
	Height          int
	Bitrate         int64 // bits/sec, 0 if unknown
	IsWebLike       bool
	VeryHighQuality bool
}

// Compute derives Params from in.
func Compute(in Input) Params {
	p := Params{}

	p.CRF = crfForHeight(in.Height)
	if belowBitrateFloor(in.Height, in.Bitrate) {
		p.CRF++
	}

	p.Preset = presetForHeight(in.Height)
	if in.VeryHighQuality && p.Preset > 0 {
		p.Preset--
	}

	p.TileLayout = tileLayoutForHeight(in.Height)
	p.CPUUsed = cpuUsedForHeight(in.Height)

	oddDims := in.Width%2 != 0 || in.Height%2 != 0
	p.PadFilter = in.IsWebLike || oddDims
	if p.PadFilter {
		p.PadFilterExpr = "pad=ceil(iw/2)*2:ceil(ih/2)*2,setsar=1"
	}

	p.TimestampSafe = in.IsWebLike

	return p
}

func crfForHeight(height int) int {
	switch {
	case height >= 2160:
		return 21
	case height >= 1440:
		return 22
	case height >= 1080:
		return 23
	default:
		return 24
	}
}

// belowBitrateFloor reports whether bitrate is below the resolution tier's
// floor: 20/10/5/2 Mbps for 2160/1440/1080/below respectively. A bitrate of
// 0 (unknown) never triggers the adjustment.
func belowBitrateFloor(height int, bitrate int64) bool {
	if bitrate <= 0 {
		return false
	}
	var floor int64
	switch {
	case height >= 2160:
		floor = 20_000_000
	case height >= 1440:
		floor = 10_000_000
	case height >= 1080:
		floor = 5_000_000
	default:
		floor = 2_000_000
	}
	return bitrate < floor
}

func presetForHeight(height int) int {
	switch {
	case height >= 2160:
		return 3
	case height >= 1440:
		return 4
	case height >= 1080:
		return 4
	default:
		return 5
	}
}

func tileLayoutForHeight(height int) string {
	switch {
	case height <= 1080:
		return "2x1"
	case height <= 2160:
		return "2x2"
	default:
		return "3x2"
	}
}

func cpuUsedForHeight(height int) int {
	switch {
	case height > 1080:
		return 3
	case height == 1080:
		return 4
	default:
		return 5
	}
}
