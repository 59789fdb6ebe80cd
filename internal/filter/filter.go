// Package filter defines the closed set of pixel filters and their per-pixel
// evaluation.
package filter

import (
	"fmt"
	"strconv"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/color"
)

// Kind identifies a filter variant.
type Kind int

const (
	Invert     Kind = iota // 255 minus each channel.
	GrayScale              // Clamped intensity on all channels.
	Binarize               // White at or above Threshold, black below.
	Brightness             // Adds Amount to each channel.
	Contrast               // Scales each channel around the mean brightness by Factor.
)

func (k Kind) String() string {
	switch k {
	case Invert:
		return "invert"
	case GrayScale:
		return "grayscale"
	case Binarize:
		return "binarize"
	case Brightness:
		return "brightness"
	case Contrast:
		return "contrast"
	default:
		return "unknown"
	}
}

// Filter is an immutable filter configuration. Only the parameter matching
// Kind is meaningful.
type Filter struct {
	Kind      Kind
	Threshold int     // Binarize, always within [0, 255]
	Amount    int     // Brightness
	Factor    float64 // Contrast
}

// NewInvert returns an Invert filter.
func NewInvert() Filter { return Filter{Kind: Invert} }

// NewGrayScale returns a GrayScale filter.
func NewGrayScale() Filter { return Filter{Kind: GrayScale} }

// NewBinarize returns a Binarize filter. threshold is clamped to [0, 255].
func NewBinarize(threshold int) Filter {
	return Filter{Kind: Binarize, Threshold: color.Clamp(threshold, 0, 255)}
}

// NewBrightness returns a Brightness filter shifting every channel by amount.
func NewBrightness(amount int) Filter {
	return Filter{Kind: Brightness, Amount: amount}
}

// NewContrast returns a Contrast filter with the given scale factor.
func NewContrast(factor float64) Filter {
	return Filter{Kind: Contrast, Factor: factor}
}

// RequiresStatistic reports whether the filter needs the image mean
// brightness before any pixel can be evaluated.
func (f Filter) RequiresStatistic() bool {
	return f.Kind == Contrast
}

// Evaluate computes the output color at (x, y) from src. baseline is the
// mean brightness of src and is only read by Contrast.
func (f Filter) Evaluate(src *buffer.Buffer, x, y int, baseline int) color.RGB {
	c := src.At(x, y)
	switch f.Kind {
	case Invert:
		return color.RGB{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
	case GrayScale:
		return color.Gray(color.ClampByte(c.Intensity()))
	case Binarize:
		if c.Intensity() >= f.Threshold {
			return color.Gray(255)
		}
		return color.Gray(0)
	case Brightness:
		return color.RGB{
			R: color.ClampByte(int(c.R) + f.Amount),
			G: color.ClampByte(int(c.G) + f.Amount),
			B: color.ClampByte(int(c.B) + f.Amount),
		}
	case Contrast:
		return color.RGB{
			R: stretch(c.R, baseline, f.Factor),
			G: stretch(c.G, baseline, f.Factor),
			B: stretch(c.B, baseline, f.Factor),
		}
	default:
		return c
	}
}

// stretch computes b + (v-b)*k truncated toward zero and clamped to a byte.
// Out-of-range and NaN values saturate before the integer conversion.
func stretch(v uint8, b int, k float64) uint8 {
	s := float64(b) + float64(int(v)-b)*k
	if !(s > 0) {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s)
}

func (f Filter) String() string {
	switch f.Kind {
	case Binarize:
		return fmt.Sprintf("%s(%d)", f.Kind, f.Threshold)
	case Brightness:
		return fmt.Sprintf("%s(%d)", f.Kind, f.Amount)
	case Contrast:
		return fmt.Sprintf("%s(%s)", f.Kind, strconv.FormatFloat(f.Factor, 'g', -1, 64))
	default:
		return f.Kind.String()
	}
}
