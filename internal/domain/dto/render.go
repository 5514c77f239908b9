package dto

import (
	"fmt"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

// RenderRequest is the transport independent render input. Zero values fall
// back to the preset, or to the configured defaults when no preset is named.
type RenderRequest struct {
	Content         string       `json:"content" validate:"required,max=7089"`
	Format          string       `json:"format" validate:"omitempty,oneof=png svg"`
	Preset          string       `json:"preset" validate:"omitempty,qr_preset"`
	SizePx          int          `json:"size" validate:"omitempty,min=32,max=4096"`
	Foreground      string       `json:"foreground" validate:"omitempty,qr_opaque_color"`
	Background      string       `json:"background" validate:"omitempty,qr_opaque_color"`
	CornerRadiusPx  *int         `json:"corner_radius" validate:"omitempty,min=0"`
	MarginModules   *float64     `json:"margin" validate:"omitempty,min=0,max=16"`
	ErrorCorrection string       `json:"error_correction" validate:"omitempty,ec_level"`
	Scale           float64      `json:"scale" validate:"omitempty,gt=0,max=8"`
	Logo            *LogoRequest `json:"logo"`

	// Cache looks the artifact up before rendering and stores it afterwards.
	Cache bool `json:"cache"`
	// Store delivers the artifact to every configured sink and records it.
	Store bool `json:"store"`
}

// LogoRequest carries the raw logo bytes, base64 encoded in JSON.
type LogoRequest struct {
	Data          []byte   `json:"data" validate:"required"`
	SizeRatio     float64  `json:"size_ratio" validate:"omitempty,gt=0,lte=0.25"`
	MarginRatio   *float64 `json:"margin_ratio" validate:"omitempty,min=0,lt=0.5"`
	BorderColor   string   `json:"border_color" validate:"omitempty,qr_color"`
	BorderWidthPx *float64 `json:"border_width" validate:"omitempty,min=0"`
	ShadowBlurPx  *float64 `json:"shadow_blur" validate:"omitempty,min=0"`
	ShadowColor   string   `json:"shadow_color" validate:"omitempty,qr_color"`
}

// ExportFormat returns the requested format, png when unset.
func (r RenderRequest) ExportFormat() (qr.Format, error) {
	if r.Format == "" {
		return qr.FormatPNG, nil
	}
	format := qr.Format(r.Format)
	if !format.Valid() {
		return "", fmt.Errorf("%w: %q", errorz.ErrInvalidFormat, r.Format)
	}
	return format, nil
}

// ExportScale returns the raster scale, 1 when unset.
func (r RenderRequest) ExportScale() float64 {
	if r.Scale <= 0 {
		return 1
	}
	return r.Scale
}

// Options merges the request over base, or over the named preset.
func (r RenderRequest) Options(base qr.Options) (qr.Options, error) {
	opts := base
	if r.Preset != "" {
		preset, ok := qr.Preset(r.Preset)
		if !ok {
			return qr.Options{}, fmt.Errorf("%w: unknown preset %q", qr.ErrInvalidOptions, r.Preset)
		}
		opts = preset
	}

	if r.SizePx != 0 {
		opts.SizePx = r.SizePx
	}
	if r.Foreground != "" {
		opts.Foreground = r.Foreground
	}
	if r.Background != "" {
		opts.Background = r.Background
	}
	if r.CornerRadiusPx != nil {
		opts.CornerRadiusPx = *r.CornerRadiusPx
	}
	if r.MarginModules != nil {
		opts.MarginModules = *r.MarginModules
	}
	if r.ErrorCorrection != "" {
		level, err := qr.ParseECLevel(r.ErrorCorrection)
		if err != nil {
			return qr.Options{}, err
		}
		opts.ErrorCorrection = level
	}

	opts.Logo = nil
	if r.Logo != nil {
		logo := qr.DefaultLogoOptions()
		logo.Data = r.Logo.Data
		if r.Logo.SizeRatio != 0 {
			logo.SizeRatio = r.Logo.SizeRatio
		}
		if r.Logo.MarginRatio != nil {
			logo.MarginRatio = *r.Logo.MarginRatio
		}
		if r.Logo.BorderColor != "" {
			logo.BorderColor = r.Logo.BorderColor
		}
		if r.Logo.BorderWidthPx != nil {
			logo.BorderWidthPx = *r.Logo.BorderWidthPx
		}
		if r.Logo.ShadowBlurPx != nil {
			logo.ShadowBlurPx = *r.Logo.ShadowBlurPx
		}
		if r.Logo.ShadowColor != "" {
			logo.ShadowColor = r.Logo.ShadowColor
		}
		opts.Logo = &logo
	}
	return opts, opts.Validate()
}

// RenderResult is a finished artifact.
type RenderResult struct {
	Key         string    `json:"key"`
	Format      qr.Format `json:"format"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	Warnings    []string  `json:"warnings,omitempty"`
	Locations   []string  `json:"locations,omitempty"`
	Cached      bool      `json:"cached"`
}

// Preset is a named option set as exposed to clients.
type Preset struct {
	Name            string  `json:"name"`
	SizePx          int     `json:"size"`
	Foreground      string  `json:"foreground"`
	Background      string  `json:"background"`
	CornerRadiusPx  int     `json:"corner_radius"`
	MarginModules   float64 `json:"margin"`
	ErrorCorrection string  `json:"error_correction"`
}

func NewPreset(name string, opts qr.Options) Preset {
	return Preset{
		Name:            name,
		SizePx:          opts.SizePx,
		Foreground:      opts.Foreground,
		Background:      opts.Background,
		CornerRadiusPx:  opts.CornerRadiusPx,
		MarginModules:   opts.MarginModules,
		ErrorCorrection: opts.ErrorCorrection.String(),
	}
}

// ExportPage is one page of recorded exports.
type ExportPage struct {
	Total  int64       `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
	Items  interface{} `json:"items"`
}
