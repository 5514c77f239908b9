package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"go.uber.org/zap"
)

// RendererConfig is passed to NewRenderer. There is no package level state.
type RendererConfig struct {
	Logger *zap.SugaredLogger
}

// Renderer runs the fixed pipeline encode -> colors -> corners -> logo and
// exports the result. It keeps no per-render state, so one instance can serve
// concurrent callers.
type Renderer struct {
	logger *zap.SugaredLogger
	logos  *LogoCompositor
}

func NewRenderer(cfg RendererConfig) *Renderer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Renderer{
		logger: logger,
		logos:  NewLogoCompositor(logger),
	}
}

// Render produces a fresh image for content. Option, encoding and color
// errors abort the render; logo problems only add Warnings.
func (r *Renderer) Render(content string, opts Options) (*Image, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	symbol, err := Encode(content, opts.ErrorCorrection, opts.MarginModules)
	if err != nil {
		return nil, err
	}
	img := symbol.Image(opts.SizePx)

	if _, err = ApplyColors(img, opts.Foreground, opts.Background); err != nil {
		return nil, err
	}
	RoundCorners(img, opts.CornerRadiusPx)

	if opts.Logo != nil {
		r.logos.AddLogo(img, *opts.Logo, opts.SizePx)
		// Logo nodes are excluded by class, so this only re-asserts module radii.
		RoundCorners(img, opts.CornerRadiusPx)
	}

	r.logger.Debugf("rendered version %d-%s symbol, %d modules, %d px", symbol.Version(), symbol.Level(), symbol.Size(), opts.SizePx)
	return img, nil
}

// ExportSVG renders content and serializes the vector image.
func (r *Renderer) ExportSVG(content string, opts Options) (string, error) {
	img, err := r.Render(content, opts)
	if err != nil {
		return "", err
	}
	svg, err := img.SVG()
	if err != nil {
		return "", fmt.Errorf("serialize svg: %w", err)
	}
	return svg, nil
}

// ExportPNG renders content and rasterizes it at scale (1 keeps SizePx).
func (r *Renderer) ExportPNG(content string, opts Options, scale float64) ([]byte, error) {
	img, err := r.Render(content, opts)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img, scale)
}

// EncodePNG rasterizes an already rendered image. The image is serialized and
// parsed back first, so the bitmap reflects exactly what ExportSVG would emit.
func EncodePNG(img *Image, scale float64) ([]byte, error) {
	svg, err := img.Bytes()
	if err != nil {
		return nil, &RasterizationError{Err: err}
	}
	bitmap, err := Rasterize(svg, scale)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, bitmap); err != nil {
		return nil, &RasterizationError{Err: err}
	}
	return buf.Bytes(), nil
}
