// Package histogram counts pixel intensities.
package histogram

import (
	"errors"

	"github.com/maax3v3/pixfilter/internal/buffer"
)

// Bins is the number of intensity buckets.
const Bins = 256

// Percentage scale used when the histogram is charted: TickCount intervals
// of TickStep percent each, from 0% to 100%.
const (
	TickCount = 20
	TickStep  = 5
)

// ErrEmpty is returned when percentages are requested for a histogram
// that counts no pixels.
var ErrEmpty = errors.New("histogram is empty")

// Histogram holds one count per intensity value.
type Histogram [Bins]int

// Compute returns the intensity histogram of b. Every pixel lands in
// exactly one bucket.
func Compute(b *buffer.Buffer) Histogram {
	var h Histogram
	for _, c := range b.Pix {
		h[c.Intensity()]++
	}
	return h
}

// Total returns the sum of all buckets.
func (h *Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Percentages returns each bucket as a percentage of the total.
func (h *Histogram) Percentages() ([Bins]float64, error) {
	var pct [Bins]float64
	total := h.Total()
	if total == 0 {
		return pct, ErrEmpty
	}
	for i, n := range h {
		pct[i] = float64(n) / float64(total) * 100
	}
	return pct, nil
}

// Ticks returns the percentage labels of the chart scale: 0, 5, ..., 100.
func Ticks() []int {
	ticks := make([]int, 0, TickCount+1)
	for i := 0; i <= TickCount; i++ {
		ticks = append(ticks, i*TickStep)
	}
	return ticks
}
