package qr

import (
	"fmt"
	"strings"
)

// ECLevel is the error correction level of a symbol.
type ECLevel string

const (
	ECLevelL ECLevel = "L" // ~7% recovery
	ECLevelM ECLevel = "M" // ~15% recovery
	ECLevelQ ECLevel = "Q" // ~25% recovery
	ECLevelH ECLevel = "H" // ~30% recovery
)

// ParseECLevel accepts the level letter in any case.
func ParseECLevel(s string) (ECLevel, error) {
	level := ECLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("%w: unknown error correction level %q", ErrInvalidOptions, s)
	}
	return level, nil
}

func (l ECLevel) Valid() bool {
	switch l {
	case ECLevelL, ECLevelM, ECLevelQ, ECLevelH:
		return true
	}
	return false
}

func (l ECLevel) String() string {
	return string(l)
}

const (
	// MaxLogoRatio is the largest share of the symbol side a logo may cover
	// before the occluded modules can no longer be reconstructed.
	MaxLogoRatio = 0.25
	// MinLogoSide is the smallest accepted logo raster side in pixels.
	MinLogoSide = 100
	// MaxLogoSide bounds the decoded logo raster on either axis.
	MaxLogoSide = 4096
	// MaxCanvasPx bounds the side of a rasterized canvas, after scaling.
	MaxCanvasPx = 8192
)

// LogoOptions describes the centered logo overlay.
type LogoOptions struct {
	Data          []byte
	SizeRatio     float64 // Share of the canvas side, capped by EffectiveLogoRatio
	MarginRatio   float64 // Inset of the raster inside the clip circle, relative to the logo size
	BorderColor   string  // Fill of the disc drawn beneath the logo
	BorderWidthPx float64
	ShadowBlurPx  float64
	ShadowColor   string
}

// Options is the full set of render parameters. A zero value is invalid,
// start from DefaultOptions.
type Options struct {
	SizePx          int
	Foreground      string
	Background      string
	CornerRadiusPx  int
	MarginModules   float64
	ErrorCorrection ECLevel
	Logo            *LogoOptions
}

func DefaultOptions() Options {
	return Options{
		SizePx:          300,
		Foreground:      "#000000",
		Background:      "#ffffff",
		CornerRadiusPx:  0,
		MarginModules:   1,
		ErrorCorrection: ECLevelH,
	}
}

func DefaultLogoOptions() LogoOptions {
	return LogoOptions{
		SizeRatio:     0.18,
		MarginRatio:   0.05,
		BorderColor:   "#ffffff",
		BorderWidthPx: 2,
		ShadowBlurPx:  2,
		ShadowColor:   "rgba(0, 0, 0, 0.1)",
	}
}

// WithLogo returns a copy of o carrying data with the default logo styling.
func (o Options) WithLogo(data []byte) Options {
	logo := DefaultLogoOptions()
	logo.Data = data
	o.Logo = &logo
	return o
}

// Validate checks the numeric invariants. Colors are checked by ApplyColors
// so that the caller receives an InvalidColorError rather than an options error.
func (o Options) Validate() error {
	if o.SizePx <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOptions, o.SizePx)
	}
	if o.SizePx > MaxCanvasPx {
		return fmt.Errorf("%w: size %d exceeds %d", ErrInvalidOptions, o.SizePx, MaxCanvasPx)
	}
	if o.CornerRadiusPx < 0 {
		return fmt.Errorf("%w: corner radius must not be negative, got %d", ErrInvalidOptions, o.CornerRadiusPx)
	}
	if o.CornerRadiusPx*2 > o.SizePx {
		return fmt.Errorf("%w: corner radius %d exceeds half of size %d", ErrInvalidOptions, o.CornerRadiusPx, o.SizePx)
	}
	if o.MarginModules < 0 {
		return fmt.Errorf("%w: margin must not be negative, got %g", ErrInvalidOptions, o.MarginModules)
	}
	if !o.ErrorCorrection.Valid() {
		return fmt.Errorf("%w: unknown error correction level %q", ErrInvalidOptions, o.ErrorCorrection)
	}
	if o.Logo != nil {
		if err := o.Logo.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l *LogoOptions) validate() error {
	if l.SizeRatio <= 0 || l.SizeRatio > MaxLogoRatio {
		return fmt.Errorf("%w: logo size ratio must be in (0, %g], got %g", ErrInvalidOptions, MaxLogoRatio, l.SizeRatio)
	}
	if l.MarginRatio < 0 || l.MarginRatio >= 0.5 {
		return fmt.Errorf("%w: logo margin ratio must be in [0, 0.5), got %g", ErrInvalidOptions, l.MarginRatio)
	}
	if l.BorderWidthPx < 0 || l.ShadowBlurPx < 0 {
		return fmt.Errorf("%w: logo border and shadow must not be negative", ErrInvalidOptions)
	}
	return nil
}
