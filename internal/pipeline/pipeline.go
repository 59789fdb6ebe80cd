package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/cli"
	"github.com/maax3v3/pixfilter/internal/histogram"
	"github.com/maax3v3/pixfilter/internal/imaging"
	"github.com/maax3v3/pixfilter/internal/renderer"
	"github.com/maax3v3/pixfilter/internal/session"
)

// Run loads cfg.InPath, applies cfg.Filter and saves the result to
// cfg.OutPath, writing progress lines to w. When cfg.HistogramPath is set,
// a chart of the output histogram is saved there too.
// Cancelling ctx stops the filter at the next column and nothing is saved.
func Run(ctx context.Context, cfg cli.Config, font renderer.FontRenderer, w io.Writer) error {
	// Step 1: Load input image
	fmt.Fprintf(w, "Loading image: %s\n", cfg.InPath)
	img, err := imaging.Load(cfg.InPath)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	src := buffer.FromImage(img)
	fmt.Fprintf(w, "Image loaded: %dx%d\n", src.Width, src.Height)

	s := session.New()
	if err := s.Load(src); err != nil {
		return err
	}

	// Step 2: Apply filter
	job, err := s.Start(ctx, cfg.Filter)
	if err != nil {
		return fmt.Errorf("starting %s: %w", cfg.Filter, err)
	}
	for p := range job.Progress() {
		fmt.Fprintf(w, "\rApplying %s... %3d%%", cfg.Filter, p)
	}
	fmt.Fprintln(w)

	res := job.Wait()
	if res.Cancelled {
		return fmt.Errorf("applying %s: %w", cfg.Filter, session.ErrCancelled)
	}
	if res.Err != nil {
		return fmt.Errorf("applying %s: %w", cfg.Filter, res.Err)
	}

	// Step 3: Save output
	fmt.Fprintf(w, "Saving output: %s\n", cfg.OutPath)
	if err := imaging.Save(cfg.OutPath, res.Image.ToImage()); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}

	// Step 4: Histogram chart
	if cfg.HistogramPath != "" {
		if err := SaveHistogram(s, cfg.HistogramPath, font, chartConfig(cfg), w); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "Done!")
	return nil
}

// SaveHistogram charts the histogram of the session's current image into a
// PNG at path, laid out by chart.
func SaveHistogram(s *session.Session, path string, font renderer.FontRenderer, chart renderer.Config, w io.Writer) error {
	h, err := s.Histogram()
	if err != nil {
		return fmt.Errorf("computing histogram: %w", err)
	}
	fmt.Fprintf(w, "Histogram: %d pixels, mode %d\n", h.Total(), mode(&h))

	fmt.Fprintf(w, "Saving histogram: %s\n", path)
	img := renderer.Chart(&h, font, chart)
	if err := imaging.SavePNG(path, img); err != nil {
		return fmt.Errorf("saving histogram: %w", err)
	}
	return nil
}

// chartConfig returns cfg.Chart, or the default layout when cfg was built
// without one.
func chartConfig(cfg cli.Config) renderer.Config {
	if cfg.Chart.Width == 0 || cfg.Chart.Height == 0 {
		return renderer.DefaultConfig()
	}
	return cfg.Chart
}

// mode returns the most populated bucket, preferring the darkest on ties.
func mode(h *histogram.Histogram) int {
	best := 0
	for i, n := range h {
		if n > h[best] {
			best = i
		}
	}
	return best
}
