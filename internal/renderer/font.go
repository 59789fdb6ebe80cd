package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontRenderer is the interface for drawing text onto images.
// Implementations can be swapped (e.g., bitmap font, TTF font).
type FontRenderer interface {
	// DrawString draws the given text centered at (cx, cy) on the image
	// with the specified color and font size (approximate height in pixels).
	DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int)

	// MeasureString returns the approximate width and height of the text
	// at the given font size.
	MeasureString(text string, size int) (width, height int)
}

// FaceFont draws text with a fixed-size font.Face. The size argument is
// ignored.
type FaceFont struct {
	face font.Face
}

// NewFaceFont wraps face. A nil face selects basicfont.Face7x13.
func NewFaceFont(face font.Face) *FaceFont {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &FaceFont{face: face}
}

func (f *FaceFont) DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int) {
	if text == "" {
		return
	}
	w, h := f.MeasureString(text, size)
	ascent := f.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: f.face,
		Dot:  fixed.P(cx-w/2, cy-h/2+ascent),
	}
	d.DrawString(text)
}

func (f *FaceFont) MeasureString(text string, size int) (width, height int) {
	if text == "" {
		return 0, 0
	}
	m := f.face.Metrics()
	return font.MeasureString(f.face, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}
