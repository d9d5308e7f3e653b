package launcher

import "math"

// MaxCombined caps the sum of layer weight, relevance and usage.
const MaxCombined = 3.0

// Score blends a raw relevance score, a usage count and a layer into a
// final score in (0, 1]. Relevance and usage both saturate, so neither can
// dominate arbitrarily; the layer sets a coarse band they can only
// partially override.
//
// The one exception to the lower bound is a Bottom item with no relevance
// and no usage, which scores exactly 0.
func Score(raw, uses int, layer Layer) float64 {
	s := float64(max(raw, 0))
	h := float64(max(uses, 0))

	relative := 1 - 1/(s/10+1)
	absolute := layer.Weight() + relative
	history := 1 - 1/(h/50+1)
	combined := math.Min(absolute+history, MaxCombined)
	return combined / MaxCombined
}
