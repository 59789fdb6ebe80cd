// Package pixfilter applies bitmap filters (invert, grayscale, binarization,
// brightness and contrast) and computes brightness histograms.
//
// Usage as a library:
//
//	img, _ := pixfilter.LoadImage("photo.png")
//	out, _ := pixfilter.Apply(context.Background(), img, pixfilter.Contrast(1.5), nil)
//	pixfilter.SaveImage("contrast.png", out)
//
// Interactive front ends keep a Session, which runs one filter at a time and
// retains one level of undo plus the last filter for repeating.
package pixfilter

import (
	"context"
	"fmt"
	"image"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/cli"
	"github.com/maax3v3/pixfilter/internal/engine"
	"github.com/maax3v3/pixfilter/internal/filter"
	"github.com/maax3v3/pixfilter/internal/histogram"
	"github.com/maax3v3/pixfilter/internal/imaging"
	"github.com/maax3v3/pixfilter/internal/renderer"
	"github.com/maax3v3/pixfilter/internal/session"
)

// Filter is an immutable filter configuration.
type Filter = filter.Filter

// Session holds the current image, one undo slot and the last completed
// filter. See NewSession.
type Session = session.Session

// Histogram holds one pixel count per intensity value 0..255.
type Histogram = histogram.Histogram

// FontRenderer draws the percentage labels of histogram charts.
type FontRenderer = renderer.FontRenderer

// Errors reported by Apply and Session.
var (
	ErrCancelled        = engine.ErrCancelled
	ErrNoImage          = session.ErrNoImage
	ErrBusy             = session.ErrBusy
	ErrNoFilter         = session.ErrNoFilter
	ErrInvalidParameter = cli.ErrInvalidParameter
)

// Options configures histogram chart rendering.
type Options struct {
	// Font draws the tick labels. If nil, basicfont's 7x13 face is used.
	Font FontRenderer
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}

// Invert returns a filter replacing each channel v with 255-v.
func Invert() Filter { return filter.NewInvert() }

// GrayScale returns a filter replacing each pixel with its intensity.
func GrayScale() Filter { return filter.NewGrayScale() }

// Binarize returns a filter mapping intensities at or above threshold to
// white and the rest to black. threshold is clamped to [0, 255].
func Binarize(threshold int) Filter { return filter.NewBinarize(threshold) }

// Brightness returns a filter adding amount to every channel.
func Brightness(amount int) Filter { return filter.NewBrightness(amount) }

// Contrast returns a filter scaling every channel around the image mean
// brightness by factor.
func Contrast(factor float64) Filter { return filter.NewContrast(factor) }

// ParseFilter builds a filter from an action name ("invert", "grayscale",
// "binarize", "brighten", "darken", "contrast", "decontrast") and its amount.
func ParseFilter(action, amount string) (Filter, error) {
	return cli.ParseFilter(action, amount)
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return session.New()
}

// LoadImage reads an image from disk. Supports PNG, JPEG, GIF, BMP and WEBP.
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(path)
}

// SaveImage writes an image to disk as PNG, JPEG or BMP depending on the
// extension.
func SaveImage(path string, img image.Image) error {
	return imaging.Save(path, img)
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return imaging.SavePNG(path, img)
}

// Apply runs f over img and returns the filtered copy. progress, if not
// nil, receives non-decreasing percentages ending at 100. Cancelling ctx
// stops the run at the next column and returns ErrCancelled.
func Apply(ctx context.Context, img image.Image, f Filter, progress func(percent int)) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	out, err := engine.Run(ctx, f, buffer.FromImage(img), progress)
	if err != nil {
		return nil, fmt.Errorf("applying %s: %w", f, err)
	}
	return out.ToImage(), nil
}

// ComputeHistogram returns the intensity histogram of img.
func ComputeHistogram(img image.Image) (Histogram, error) {
	if img == nil {
		return Histogram{}, ErrNoImage
	}
	return histogram.Compute(buffer.FromImage(img)), nil
}

// HistogramChart renders h as a 311x540 bar chart with a 0–100% scale in
// 5% steps.
func HistogramChart(h Histogram, opts Options) *image.RGBA {
	return renderer.Chart(&h, resolveFont(opts.Font), renderer.DefaultConfig())
}

// resolveFont returns the font to draw with, using basicfont if the user
// did not provide one.
func resolveFont(f FontRenderer) renderer.FontRenderer {
	if f != nil {
		return f
	}
	return renderer.NewFaceFont(nil)
}
