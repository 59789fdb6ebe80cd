package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/maax3v3/pixfilter/internal/imaging"
)

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(30 * x), uint8(30 * y), 50, 255})
		}
	}
	path := filepath.Join(dir, "in.png")
	if err := imaging.SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	out := filepath.Join(dir, "out.bmp")
	hist := filepath.Join(dir, "hist.png")

	args := []string{"pixfilter", "apply", "--in", in, "--out", out, "--filter", "binarize", "--amount", "100", "--histogram", hist}
	if err := newApp().RunContext(context.Background(), args); err != nil {
		t.Fatalf("apply: %v", err)
	}

	img, err := imaging.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if v := r >> 8; v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) not binary: %d", x, y, v)
			}
		}
	}
	if _, err := os.Stat(hist); err != nil {
		t.Errorf("histogram chart missing: %v", err)
	}
}

func TestApplyCommand_InvalidAmount(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	args := []string{"pixfilter", "apply", "--in", in, "--out", filepath.Join(dir, "out.png"), "--filter", "contrast", "--amount", "lots"}
	if err := newApp().RunContext(context.Background(), args); err == nil {
		t.Fatal("expected error for invalid amount")
	}
}

func TestHistogramCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	out := filepath.Join(dir, "chart.png")

	args := []string{"pixfilter", "histogram", "--in", in, "--out", out}
	if err := newApp().RunContext(context.Background(), args); err != nil {
		t.Fatalf("histogram: %v", err)
	}
	chart, err := imaging.Load(out)
	if err != nil {
		t.Fatalf("loading chart: %v", err)
	}
	if chart.Bounds().Dx() != 311 || chart.Bounds().Dy() != 540 {
		t.Errorf("chart size: got %v", chart.Bounds())
	}
}

func TestHistogramCommand_Colors(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	out := filepath.Join(dir, "chart.png")

	args := []string{"pixfilter", "histogram", "--in", in, "--out", out, "--background", "#102030", "--bar-color", "f00"}
	if err := newApp().RunContext(context.Background(), args); err != nil {
		t.Fatalf("histogram: %v", err)
	}
	chart, err := imaging.Load(out)
	if err != nil {
		t.Fatalf("loading chart: %v", err)
	}
	r, g, b, _ := chart.At(chart.Bounds().Max.X-1, 0).RGBA()
	if r>>8 != 0x10 || g>>8 != 0x20 || b>>8 != 0x30 {
		t.Errorf("background: got (%d,%d,%d), want (16,32,48)", r>>8, g>>8, b>>8)
	}
}

func TestHistogramCommand_InvalidColor(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	args := []string{"pixfilter", "histogram", "--in", in, "--out", filepath.Join(dir, "chart.png"), "--bar-color", "#12"}
	if err := newApp().RunContext(context.Background(), args); err == nil {
		t.Fatal("expected error for invalid bar color")
	}
}
