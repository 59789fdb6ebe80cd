// Package buffer holds the pixel grid every filter reads from and writes to.
package buffer

import (
	"image"
	"runtime"
	"sync"

	"github.com/maax3v3/pixfilter/internal/color"
)

// Buffer is a dense Width×Height grid of RGB triples.
// A Buffer returned by a filter run is never modified again.
type Buffer struct {
	Width, Height int
	Pix           []color.RGB // row-major: index = y*Width + x
}

// New allocates a black buffer of the given size.
// Negative dimensions are treated as zero.
func New(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{
		Width:  w,
		Height: h,
		Pix:    make([]color.RGB, w*h),
	}
}

// FromImage copies img into a new Buffer. Alpha is dropped: each pixel keeps
// its straight (non-premultiplied) channels.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	b := New(bounds.Dx(), bounds.Dy())

	var at func(x, y int) color.RGB
	switch src := img.(type) {
	case *image.NRGBA:
		at = func(x, y int) color.RGB {
			i := src.PixOffset(x, y)
			return color.RGB{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]}
		}
	case *image.RGBA:
		at = func(x, y int) color.RGB {
			i := src.PixOffset(x, y)
			if src.Pix[i+3] == 0xff {
				return color.RGB{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]}
			}
			return color.FromStdColor(src.RGBAAt(x, y))
		}
	default:
		at = func(x, y int) color.RGB {
			return color.FromStdColor(img.At(x, y))
		}
	}

	parallelRows(b.Height, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			row := b.Pix[y*b.Width : (y+1)*b.Width]
			for x := range row {
				row[x] = at(bounds.Min.X+x, bounds.Min.Y+y)
			}
		}
	})
	return b
}

// ToImage renders the buffer as an opaque *image.RGBA anchored at (0, 0).
func (b *Buffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, b.Pix[y*b.Width+x].ToStdColor())
		}
	}
	return img
}

// At returns the color at (x, y). Coordinates must be in range.
func (b *Buffer) At(x, y int) color.RGB {
	return b.Pix[y*b.Width+x]
}

// Set stores c at (x, y). Coordinates must be in range.
func (b *Buffer) Set(x, y int, c color.RGB) {
	b.Pix[y*b.Width+x] = c
}

// Area returns Width*Height.
func (b *Buffer) Area() int {
	return b.Width * b.Height
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b.Area() == 0
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]color.RGB, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Equal reports whether a and b have the same size and pixels.
func Equal(a, b *Buffer) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

// parallelRows runs fn across row bands using one goroutine per CPU.
func parallelRows(h int, fn func(startY, endY int)) {
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (h + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}
		wg.Add(1)
		go func(sy, ey int) {
			defer wg.Done()
			fn(sy, ey)
		}(startY, endY)
	}
	wg.Wait()
}
