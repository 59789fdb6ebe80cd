// Package progress maps column sweeps onto percentage ranges.
package progress

// Column returns the percentage reported before column x of a sweep over w
// columns that covers [offset, offset+span). The fraction is truncated, so
// the last column reports less than offset+span.
func Column(x, w, span, offset int) int {
	return int(float64(x)/float64(w)*float64(span)) + offset
}
