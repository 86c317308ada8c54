package theme

import (
	"sort"

	"portfolio-site/internal/colorutil"
)

const (
	minPrimaryLuminance = 0.1
	maxPrimaryLuminance = 0.85
	accentSatWeight     = 0.3
	thirdSatWeight      = 0.2
)

// Triad is the ordered (primary, accent, third) selection made from a palette.
type Triad struct {
	Primary colorutil.Hex `json:"primary"`
	Accent  colorutil.Hex `json:"accent"`
	Third   colorutil.Hex `json:"third"`
}

type analyzed struct {
	hex colorutil.Hex
	colorutil.HSL
	lum float64
}

// PickDiverse greedily selects three colors that are far apart on the hue wheel.
//
// The primary is the most saturated color whose luminance lies strictly inside
// (0.1, 0.85), falling back to the most saturated color overall. The accent maximizes hue
// distance from the primary with a small saturation bonus, and the third maximizes its
// minimum hue distance to both. When nothing is left for the third slot it repeats the
// primary.
func PickDiverse(colors []colorutil.Hex) Triad {
	if len(colors) == 0 {
		return Triad{}
	}

	all := make([]analyzed, 0, len(colors))
	for _, hex := range colors {
		all = append(all, analyzed{hex: hex, HSL: colorutil.ToHSL(hex), lum: colorutil.Luminance(hex)})
	}

	candidates := make([]analyzed, 0, len(all))
	for _, c := range all {
		if c.lum > minPrimaryLuminance && c.lum < maxPrimaryLuminance {
			candidates = append(candidates, c)
		}
	}

	var primary analyzed
	if len(candidates) > 0 {
		sortBySaturation(candidates)
		primary = candidates[0]
	} else {
		// The fallback reorders the full set, which also fixes tie order for later picks.
		sortBySaturation(all)
		primary = all[0]
	}

	rest := without(all, primary.hex)
	if len(rest) == 0 {
		return Triad{Primary: primary.hex, Accent: primary.hex, Third: primary.hex}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return accentScore(rest[i], primary) > accentScore(rest[j], primary)
	})
	accent := rest[0]

	rest = without(rest, accent.hex)
	third := primary
	if len(rest) > 0 {
		sort.SliceStable(rest, func(i, j int) bool {
			return thirdScore(rest[i], primary, accent) > thirdScore(rest[j], primary, accent)
		})
		third = rest[0]
	}

	return Triad{Primary: primary.hex, Accent: accent.hex, Third: third.hex}
}

func accentScore(c, primary analyzed) float64 {
	return colorutil.HueDist(c.H, primary.H) + c.S*accentSatWeight
}

func thirdScore(c, primary, accent analyzed) float64 {
	return min(colorutil.HueDist(c.H, primary.H), colorutil.HueDist(c.H, accent.H)) + c.S*thirdSatWeight
}

func sortBySaturation(in []analyzed) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].S > in[j].S })
}

func without(in []analyzed, hex colorutil.Hex) []analyzed {
	out := make([]analyzed, 0, len(in))
	for _, c := range in {
		if c.hex != hex {
			out = append(out, c)
		}
	}
	return out
}
