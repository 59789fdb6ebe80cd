// Package aggregation computes image-wide statistics that filters depend on.
package aggregation

import (
	"context"
	"errors"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/progress"
)

// ErrCancelled is returned when the context is done before a sweep finishes.
var ErrCancelled = errors.New("cancelled")

// MeanBrightness returns the mean over all pixels of (R+G+B)/3. Both the
// per-pixel average and the final division truncate.
//
// Columns are visited left to right. Before each column, report (if not
// nil) receives the column's position scaled to [0, span), and ctx is checked.
// A cancelled sweep returns ErrCancelled rather than a partial mean.
// A zero-area buffer yields 0.
func MeanBrightness(ctx context.Context, b *buffer.Buffer, report func(int), span int) (int, error) {
	if b.Empty() {
		return 0, nil
	}

	var sum int64
	for x := 0; x < b.Width; x++ {
		if report != nil {
			report(progress.Column(x, b.Width, span, 0))
		}
		if ctx.Err() != nil {
			return 0, ErrCancelled
		}
		for y := 0; y < b.Height; y++ {
			sum += int64(b.At(x, y).Mean())
		}
	}
	return int(sum / int64(b.Area())), nil
}
