package backend

import (
	"fmt"
	"image/color"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Transparent = Color{}
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	// DisabledGray is the background of a disabled control.
	DisabledGray = Color{230, 230, 230, 255}
)

// RGBA creates a color from its components.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// IsTransparent reports whether drawing with c has no effect.
func (c Color) IsTransparent() bool {
	return c.A == 0
}

// Lighten adds d to each color channel, saturating at 255. Alpha is kept.
func (c Color) Lighten(d uint8) Color {
	add := func(v uint8) uint8 {
		if int(v)+int(d) > 255 {
			return 255
		}
		return v + d
	}
	return Color{R: add(c.R), G: add(c.G), B: add(c.B), A: c.A}
}

// NRGBA converts to the standard library color type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Slice returns the color as a 4-element sequence, the document encoding.
func (c Color) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

// MarshalJSON encodes the color as [r, g, b, a].
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d,%d,%d]", c.R, c.G, c.B, c.A)), nil
}
