package cli

import (
	"errors"
	"fmt"
	stdcolor "image/color"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maax3v3/pixfilter/internal/color"
	"github.com/maax3v3/pixfilter/internal/filter"
	"github.com/maax3v3/pixfilter/internal/renderer"
)

// ErrInvalidParameter is wrapped by every validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// Filter actions accepted on the command line and over HTTP.
const (
	ActionInvert     = "invert"
	ActionGrayScale  = "grayscale"
	ActionBinarize   = "binarize"
	ActionBrighten   = "brighten"
	ActionDarken     = "darken"
	ActionContrast   = "contrast"
	ActionDecontrast = "decontrast"
)

// Actions lists every filter action in menu order.
var Actions = []string{
	ActionInvert,
	ActionGrayScale,
	ActionBinarize,
	ActionBrighten,
	ActionDarken,
	ActionContrast,
	ActionDecontrast,
}

// Config holds the validated arguments of a file-to-file filter run.
type Config struct {
	InPath        string
	OutPath       string
	Filter        filter.Filter
	HistogramPath string // optional; chart of the output histogram
	Chart         renderer.Config
}

// NewConfig validates raw arguments and returns a Config.
func NewConfig(inPath, outPath, action, amount, histogramPath string) (Config, error) {
	if inPath == "" {
		return Config{}, fmt.Errorf("--in is required")
	}
	if outPath == "" {
		return Config{}, fmt.Errorf("--out is required")
	}
	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".png", ".jpg", ".jpeg", ".bmp":
	default:
		return Config{}, fmt.Errorf("--out must be a .png, .jpg or .bmp file, got %q", ext)
	}
	if histogramPath != "" {
		if err := ValidateChartPath(histogramPath); err != nil {
			return Config{}, err
		}
	}

	f, err := ParseFilter(action, amount)
	if err != nil {
		return Config{}, err
	}

	return Config{
		InPath:        inPath,
		OutPath:       outPath,
		Filter:        f,
		HistogramPath: histogramPath,
		Chart:         renderer.DefaultConfig(),
	}, nil
}

// ChartConfig returns the default chart layout with the bar and background
// colors replaced by the given hex values. Empty values keep the defaults.
func ChartConfig(bar, background string) (renderer.Config, error) {
	cfg := renderer.DefaultConfig()
	for _, c := range []struct {
		flag, value string
		dst         *stdcolor.RGBA
	}{
		{"bar-color", bar, &cfg.Bar},
		{"background", background, &cfg.Background},
	} {
		if c.value == "" {
			continue
		}
		rgb, err := color.ParseHex(c.value)
		if err != nil {
			return renderer.Config{}, fmt.Errorf("%w: --%s: %v", ErrInvalidParameter, c.flag, err)
		}
		*c.dst = rgb.ToStdColor()
	}
	return cfg, nil
}

// ValidateChartPath checks that a histogram chart destination is a .png file.
func ValidateChartPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("histogram chart must be a .png file, got %q", ext)
	}
	return nil
}

// ParseFilter maps an action name and its amount argument to a Filter.
// Actions without a parameter ignore amount.
func ParseFilter(action, amount string) (filter.Filter, error) {
	name := strings.ToLower(strings.TrimSpace(action))
	switch name {
	case ActionInvert:
		return filter.NewInvert(), nil
	case ActionGrayScale:
		return filter.NewGrayScale(), nil
	case ActionBinarize:
		n, err := parseInt(amount)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewBinarize(n), nil
	case ActionBrighten, ActionDarken:
		n, err := parseInt(amount)
		if err != nil {
			return filter.Filter{}, err
		}
		if name == ActionDarken {
			n = -n
		}
		return filter.NewBrightness(n), nil
	case ActionContrast:
		k, err := parseFloat(amount)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewContrast(k), nil
	case ActionDecontrast:
		k, err := parseFloat(amount)
		if err != nil {
			return filter.Filter{}, err
		}
		if k == 0 {
			return filter.Filter{}, fmt.Errorf("%w: decontrast amount must not be 0", ErrInvalidParameter)
		}
		return filter.NewContrast(1 / k), nil
	default:
		return filter.Filter{}, fmt.Errorf("%w: unknown filter %q (supported: %s)",
			ErrInvalidParameter, action, strings.Join(Actions, ", "))
	}
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidParameter)
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a 32-bit integer", ErrInvalidParameter, s)
	}
	return int(n), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidParameter)
	}
	k, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(k) || math.IsInf(k, 0) {
		return 0, fmt.Errorf("%w: amount %q is not a finite number", ErrInvalidParameter, s)
	}
	return k, nil
}
