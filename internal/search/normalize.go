package search

import "math"

// minMaxSpanEpsilon is how close max-min must be to zero before every
// finite value is treated as equally maximal (scaled to 1.0).
const minMaxSpanEpsilon = 1e-9

// normalize min/max-scales scores to [0,1] over its finite values. Every
// entry collapses to 1.0 when the span between min and max is ~0 (all
// scores tied, including the single-entry case).
func normalize(scores map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range scores {
		if !isFinite(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) {
		return out
	}

	span := max - min
	for id, v := range scores {
		if !isFinite(v) {
			continue
		}
		if span < minMaxSpanEpsilon {
			out[id] = 1.0
			continue
		}
		out[id] = (v - min) / span
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
