package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/maax3v3/pixfilter/internal/histogram"
)

// Config holds chart layout configuration.
type Config struct {
	Width         int // total chart width
	Height        int // total chart height
	PaddingTop    int // space above the 100% line
	PaddingBottom int // space below the 0% line
	AxisX         int // x of the first bar and left end of the grid lines
	GridEnd       int // distance between the right end of the grid lines and the right edge
	LabelX        int // left edge of the tick labels
	Background    color.RGBA
	Grid          color.RGBA
	Bar           color.RGBA
	Label         color.RGBA
}

// DefaultConfig returns a 311x540 chart: one column per bucket after a 45px
// label gutter, with 20 grid intervals of 5% between 10px paddings.
func DefaultConfig() Config {
	return Config{
		Width:         histogram.Bins + 55,
		Height:        540,
		PaddingTop:    10,
		PaddingBottom: 10,
		AxisX:         45,
		GridEnd:       10,
		LabelX:        5,
		Background:    color.RGBA{255, 255, 255, 255},
		Grid:          color.RGBA{128, 128, 128, 255},
		Bar:           color.RGBA{0, 0, 0, 255},
		Label:         color.RGBA{0, 0, 0, 255},
	}
}

// PlotHeight returns the number of pixels between the 0% and 100% lines.
func (c Config) PlotHeight() int {
	return c.Height - c.PaddingTop - c.PaddingBottom
}

// TickY returns the row of the i-th grid line, counting up from 0%.
func (c Config) TickY(i int) int {
	return c.Height - c.PaddingBottom - i*c.PlotHeight()/histogram.TickCount
}

// BarTop returns the top row of the bar for a bucket holding pct percent.
func (c Config) BarTop(pct float64) int {
	return c.Height - c.PaddingBottom - int(pct/100*float64(c.PlotHeight()))
}

// Chart renders h as a bar chart of bucket percentages. An empty histogram
// yields the scale with no bars.
func Chart(h *histogram.Histogram, font FontRenderer, cfg Config) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			out.SetRGBA(x, y, cfg.Background)
		}
	}

	// Grid lines and labels
	for i, tick := range histogram.Ticks() {
		y := cfg.TickY(i)
		hLine(out, cfg.AxisX, cfg.Width-cfg.GridEnd, y, cfg.Grid)

		label := fmt.Sprintf("%d%%", tick)
		w, _ := font.MeasureString(label, 10)
		font.DrawString(out, label, cfg.LabelX+w/2, y, cfg.Label, 10)
	}

	pct, err := h.Percentages()
	if err != nil {
		return out
	}

	// Bars
	bottom := cfg.Height - cfg.PaddingBottom
	for i, p := range pct {
		vLine(out, cfg.AxisX+i, cfg.BarTop(p), bottom, cfg.Bar)
	}

	return out
}

func hLine(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := x0; x <= x1; x++ {
		if x >= b.Min.X && x < b.Max.X {
			img.SetRGBA(x, y, col)
		}
	}
}

func vLine(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := y0; y <= y1; y++ {
		if y >= b.Min.Y && y < b.Max.Y {
			img.SetRGBA(x, y, col)
		}
	}
}
