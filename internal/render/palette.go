// Package render draws lattice fields: PNG figures through gonum/plot and raw
// RGBA buffers for the live viewer.
package render

import (
	"image/color"
	"math"

	"github.com/mazznoer/colorgrad"
)

// paletteSize is the number of discrete colours sampled from a gradient.
const paletteSize = 256

// Palette is a sampled colour gradient. It satisfies gonum/plot's
// palette.Palette.
type Palette []color.Color

// Colors returns the sampled colours, low to high.
func (p Palette) Colors() []color.Color { return p }

// At maps v within [lo, hi] to a colour; out-of-range values clamp.
func (p Palette) At(v, lo, hi float64) color.Color {
	return p[p.index(v, lo, hi)]
}

func (p Palette) index(v, lo, hi float64) int {
	if len(p) == 0 {
		return 0
	}
	t := 0.0
	if hi > lo && !math.IsNaN(v) {
		t = (v - lo) / (hi - lo)
	}
	i := int(t * float64(len(p)-1))
	if i < 0 {
		return 0
	}
	if i >= len(p) {
		return len(p) - 1
	}
	return i
}

// NewPalette samples a named gradient: "turbo" (default, jet-like),
// "viridis", "inferno" or "plasma".
func NewPalette(name string) Palette {
	switch name {
	case "viridis":
		return sample(colorgrad.Viridis().Colors(paletteSize))
	case "inferno":
		return sample(colorgrad.Inferno().Colors(paletteSize))
	case "plasma":
		return sample(colorgrad.Plasma().Colors(paletteSize))
	default:
		return sample(colorgrad.Turbo().Colors(paletteSize))
	}
}

func sample[C color.Color](cols []C) Palette {
	p := make(Palette, 0, len(cols))
	for _, c := range cols {
		p = append(p, c)
	}
	return p
}
