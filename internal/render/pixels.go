package render

import (
	"math"

	"lbm/internal/lattice"
)

// Pixels fills dst with an RGBA image of the speed field, one pixel per cell
// and row 0 at the bottom. Speeds are scaled against maxSpeed; a zero
// maxSpeed scales against the current maximum. It returns the maximum speed
// found. dst must hold width*height*4 bytes.
func Pixels(velocity lattice.VectorView, pal Palette, dst []byte, maxSpeed float64) float64 {
	w, h := velocity.Width(), velocity.Height()
	if len(dst) < w*h*4 || len(pal) == 0 {
		return 0
	}
	speed := velocity.Magnitude()
	peak := 0.0
	for _, s := range speed {
		if !math.IsNaN(s) && s > peak {
			peak = s
		}
	}
	hi := maxSpeed
	if hi <= 0 {
		hi = peak
	}
	lut := pal.rgba()
	for y := 0; y < h; y++ {
		row := (h - 1 - y) * w * 4
		for x := 0; x < w; x++ {
			c := lut[pal.index(speed[y*w+x], 0, hi)]
			o := row + x*4
			dst[o+0] = c[0]
			dst[o+1] = c[1]
			dst[o+2] = c[2]
			dst[o+3] = 0xff
		}
	}
	return peak
}

// rgba converts the palette to 8-bit colour triples.
func (p Palette) rgba() [][3]byte {
	out := make([][3]byte, len(p))
	for i, c := range p {
		r, g, b, _ := c.RGBA()
		out[i] = [3]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8)}
	}
	return out
}
