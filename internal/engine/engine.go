// Package engine sweeps a filter across a buffer, reporting progress per
// column and honouring cooperative cancellation.
package engine

import (
	"context"
	"errors"

	"github.com/maax3v3/pixfilter/internal/aggregation"
	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/filter"
	"github.com/maax3v3/pixfilter/internal/progress"
)

var (
	// ErrCancelled is returned when a run is cancelled. It is a terminal
	// outcome rather than a failure: no output buffer is produced.
	ErrCancelled = aggregation.ErrCancelled

	// ErrNoImage is returned when a run is requested without a source.
	ErrNoImage = errors.New("no image loaded")
)

// ProgressFunc receives a percentage in [0, 100]. Values within one run are
// non-decreasing.
type ProgressFunc func(percent int)

// Run applies f to every pixel of src and returns a freshly allocated
// buffer of the same size. src is only read.
//
// Filters that require a statistic run in two phases: the mean brightness
// is computed while progress covers 0–50, then the sweep covers 50–100.
// Other filters sweep across 0–100. Progress is reported and ctx is checked
// once before each column; work inside a column is never interrupted.
// A completed run finishes by reporting 100.
//
// When ctx is done at a column boundary, Run returns ErrCancelled and the
// partially written output is dropped.
func Run(ctx context.Context, f filter.Filter, src *buffer.Buffer, report ProgressFunc) (*buffer.Buffer, error) {
	if src == nil {
		return nil, ErrNoImage
	}
	if report == nil {
		report = func(int) {}
	}

	span, offset := 100, 0
	baseline := 0
	if f.RequiresStatistic() {
		mean, err := aggregation.MeanBrightness(ctx, src, report, 50)
		if err != nil {
			return nil, err
		}
		baseline = mean
		span, offset = 50, 50
	}

	out := buffer.New(src.Width, src.Height)
	for x := 0; x < src.Width; x++ {
		report(progress.Column(x, src.Width, span, offset))
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		for y := 0; y < src.Height; y++ {
			out.Set(x, y, f.Evaluate(src, x, y, baseline))
		}
	}
	report(100)

	return out, nil
}
