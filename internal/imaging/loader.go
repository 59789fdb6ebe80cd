// Package imaging reads and writes the image files a session works on.
package imaging

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// JPEGQuality is the quality used when saving .jpg/.jpeg files.
const JPEGQuality = 95

type decodeFunc func(io.Reader) (image.Image, error)

type encodeFunc func(io.Writer, image.Image) error

// Decoders and encoders keyed by lower-case file extension.
var (
	decoders = map[string]decodeFunc{
		".png":  png.Decode,
		".jpg":  jpeg.Decode,
		".jpeg": jpeg.Decode,
		".gif":  gif.Decode,
		".bmp":  bmp.Decode,
		".webp": webp.Decode,
	}
	encoders = map[string]encodeFunc{
		".png":  png.Encode,
		".jpg":  encodeJPEG,
		".jpeg": encodeJPEG,
		".bmp":  bmp.Encode,
	}
)

func encodeJPEG(w io.Writer, m image.Image) error {
	return jpeg.Encode(w, m, &jpeg.Options{Quality: JPEGQuality})
}

// Load reads the image file at path, picking the decoder from its extension.
// Supported inputs are png, jpg, jpeg, gif, bmp and webp. The path goes
// through ExpandPath first.
func Load(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported image format %q (supported: %s)", ext, extensions(decoders))
	}

	f, err := os.Open(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return img, nil
}

// Decode reads an image of any supported format from r and returns it with
// the detected format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// Save writes img to path, picking the encoder from the extension
// (png, jpg, jpeg or bmp).
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	encode, ok := encoders[ext]
	if !ok {
		return fmt.Errorf("unsupported output format %q (supported: %s)", ext, extensions(encoders))
	}
	return write(path, img, encode, strings.TrimPrefix(ext, "."))
}

// SavePNG writes img to path as PNG whatever the extension says.
func SavePNG(path string, img image.Image) error {
	return write(path, img, png.Encode, "png")
}

func write(path string, img image.Image, encode encodeFunc, format string) error {
	f, err := os.Create(ExpandPath(path))
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return f.Close()
}

func extensions[V any](m map[string]V) string {
	exts := make([]string, 0, len(m))
	for ext := range m {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// ExpandPath resolves a leading "~" to the home directory and makes the
// path absolute. An empty path is returned unchanged.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
