package color

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Luma weights used for intensity. G is 0.5876, not the usual 0.587, so the
// weights sum to 1.0006 and white truncates to exactly 255.
const (
	WeightR = 0.299
	WeightG = 0.5876
	WeightB = 0.114
)

// RGB is an opaque color with 8-bit components.
type RGB struct {
	R, G, B uint8
}

// FromStdColor converts a standard library color to RGB, dropping alpha.
// Channels are taken before alpha premultiplication, so a translucent pixel
// keeps its hue and brightness.
func FromStdColor(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ToStdColor converts RGB to a fully opaque standard library color.
func (c RGB) ToStdColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Gray returns the RGB triple with v on all three channels.
func Gray(v uint8) RGB {
	return RGB{R: v, G: v, B: v}
}

// Intensity returns the truncated weighted luma of c. The result is not
// clamped.
func (c RGB) Intensity() int {
	return int(WeightR*float64(c.R) + WeightG*float64(c.G) + WeightB*float64(c.B))
}

// Mean returns (R+G+B)/3 with integer truncation.
func (c RGB) Mean() int {
	return (int(c.R) + int(c.G) + int(c.B)) / 3
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampByte clamps v to [0, 255] and converts it to a byte.
func ClampByte(v int) uint8 {
	return uint8(Clamp(v, 0, 255))
}

// ParseHex reads a chart color written as "#rgb" or "#rrggbb".
// The leading '#' is optional.
func ParseHex(s string) (RGB, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(digits) == 3 {
		digits = string([]byte{
			digits[0], digits[0],
			digits[1], digits[1],
			digits[2], digits[2],
		})
	}
	if len(digits) != 6 {
		return RGB{}, fmt.Errorf("color %q: want 3 or 6 hex digits", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: not hexadecimal", s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
