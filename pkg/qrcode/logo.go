package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strconv"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// logoRasterScale oversamples the embedded raster so PNG exports at scale 2
// stay sharp.
const logoRasterScale = 2

// LogoCompositor overlays a centered, circularly clipped logo on a rendered
// image. Failures never reach the caller: they are logged and recorded in
// Image.Warnings.
type LogoCompositor struct {
	logger *zap.SugaredLogger
}

func NewLogoCompositor(logger *zap.SugaredLogger) *LogoCompositor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogoCompositor{logger: logger}
}

// EffectiveLogoRatio caps the requested ratio by the canvas size: smaller
// codes have less redundancy to rebuild the modules hidden by the logo.
func EffectiveLogoRatio(requested float64, canvasSizePx int) float64 {
	var limit float64
	switch {
	case canvasSizePx <= 250:
		limit = 0.14
	case canvasSizePx <= 280:
		limit = 0.16
	case canvasSizePx <= 300:
		limit = 0.18
	default:
		limit = 0.20
	}
	if requested <= 0 {
		requested = DefaultLogoOptions().SizeRatio
	}
	return math.Min(requested, limit)
}

// DecodeLogo decodes a png, jpeg, gif, bmp or webp logo. The size checks run
// on the header alone, so tiny or oversized logos are rejected without a full
// decode.
func DecodeLogo(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrLogoDecode)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	if cfg.Width < MinLogoSide || cfg.Height < MinLogoSide {
		return nil, &LogoTooSmallError{Width: cfg.Width, Height: cfg.Height}
	}
	if cfg.Width > MaxLogoSide || cfg.Height > MaxLogoSide {
		return nil, &LogoTooLargeError{Width: cfg.Width, Height: cfg.Height}
	}
	logo, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}
	return logo, nil
}

// AddLogo composites opts.Data at the center of img. The image is returned
// unmodified, apart from Warnings, when the logo cannot be used.
func (c *LogoCompositor) AddLogo(img *Image, opts LogoOptions, canvasSizePx int) *Image {
	logo, err := DecodeLogo(opts.Data)
	if err != nil {
		c.logger.Warnf("logo skipped: %v", err)
		img.warn(err)
		return img
	}

	borderColor := c.colorOr(img, opts.BorderColor, "#ffffff")
	shadow, _ := ParseColor(DefaultLogoOptions().ShadowColor)
	if opts.ShadowColor != "" {
		if custom, errShadow := ParseColor(opts.ShadowColor); errShadow != nil {
			c.logger.Warnf("logo shadow color ignored: %v", errShadow)
			img.warn(errShadow)
		} else {
			shadow = custom
		}
	}

	ratio := EffectiveLogoRatio(opts.SizeRatio, canvasSizePx)
	logoSize := float64(canvasSizePx) * ratio
	logoX := (float64(canvasSizePx) - logoSize) / 2
	center := logoX + logoSize/2

	inner := logoSize * (1 - 2*opts.MarginRatio)
	side := uint(math.Ceil(inner * logoRasterScale))
	if side == 0 {
		side = 1
	}
	raster := resize.Thumbnail(side, side, logo, resize.Lanczos3)
	var buf bytes.Buffer
	if err = png.Encode(&buf, raster); err != nil {
		c.logger.Warnf("logo skipped: %v", err)
		img.warn(err)
		return img
	}

	bounds := raster.Bounds()
	fit := inner / math.Max(float64(bounds.Dx()), float64(bounds.Dy()))
	width := float64(bounds.Dx()) * fit
	height := float64(bounds.Dy()) * fit

	id := uuid.NewString()
	root := img.Root()
	defs := ensureDefs(root)

	filterID := ""
	if opts.ShadowBlurPx > 0 {
		filterID = "shadow-" + id
		shadowFilter(defs, filterID, opts.ShadowBlurPx, shadow)
	}

	clipID := "logo-clip-" + id
	clip := defs.CreateElement("clipPath")
	clip.CreateAttr("id", clipID)
	clipCircle := clip.CreateElement("circle")
	clipCircle.CreateAttr("cx", formatNumber(center))
	clipCircle.CreateAttr("cy", formatNumber(center))
	clipCircle.CreateAttr("r", formatNumber(logoSize/2))

	disc := root.CreateElement("circle")
	disc.CreateAttr("class", ClassLogoBackground)
	disc.CreateAttr("cx", formatNumber(center))
	disc.CreateAttr("cy", formatNumber(center))
	disc.CreateAttr("r", formatNumber(logoSize/2+opts.BorderWidthPx))
	disc.CreateAttr("fill", borderColor)
	if filterID != "" {
		disc.CreateAttr("filter", "url(#"+filterID+")")
	}

	picture := root.CreateElement("image")
	picture.CreateAttr("class", ClassLogoImage)
	picture.CreateAttr("x", formatNumber(center-width/2))
	picture.CreateAttr("y", formatNumber(center-height/2))
	picture.CreateAttr("width", formatNumber(width))
	picture.CreateAttr("height", formatNumber(height))
	picture.CreateAttr("preserveAspectRatio", "xMidYMid meet")
	picture.CreateAttr("href", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()))
	picture.CreateAttr("clip-path", "url(#"+clipID+")")

	c.logger.Debugf("logo added: ratio %.2f, %s px on a %d px canvas", ratio, formatNumber(logoSize), canvasSizePx)
	return img
}

func (c *LogoCompositor) colorOr(img *Image, value, fallback string) string {
	if value == "" {
		return fallback
	}
	canonical, err := OpaqueColor(value)
	if err != nil {
		c.logger.Warnf("logo border color ignored: %v", err)
		img.warn(err)
		return fallback
	}
	return canonical
}

// ensureDefs returns the first <defs> child of root, creating it as the first
// child when missing.
func ensureDefs(root *etree.Element) *etree.Element {
	if defs := root.SelectElement("defs"); defs != nil {
		return defs
	}
	defs := etree.NewElement("defs")
	root.InsertChildAt(0, defs)
	return defs
}

func shadowFilter(defs *etree.Element, id string, blur float64, shadow color.NRGBA) {
	filter := defs.CreateElement("filter")
	filter.CreateAttr("id", id)
	filter.CreateAttr("x", "-50%")
	filter.CreateAttr("y", "-50%")
	filter.CreateAttr("width", "200%")
	filter.CreateAttr("height", "200%")

	gaussian := filter.CreateElement("feGaussianBlur")
	gaussian.CreateAttr("in", "SourceAlpha")
	gaussian.CreateAttr("stdDeviation", formatNumber(blur))

	offset := filter.CreateElement("feOffset")
	offset.CreateAttr("dx", "0")
	offset.CreateAttr("dy", "0")
	offset.CreateAttr("result", "offsetblur")

	flood := filter.CreateElement("feFlood")
	flood.CreateAttr("flood-color", fmt.Sprintf("#%02x%02x%02x", shadow.R, shadow.G, shadow.B))
	flood.CreateAttr("flood-opacity", strconv.FormatFloat(math.Round(float64(shadow.A)/255*100)/100, 'f', -1, 64))

	composite := filter.CreateElement("feComposite")
	composite.CreateAttr("in2", "offsetblur")
	composite.CreateAttr("operator", "in")

	merge := filter.CreateElement("feMerge")
	merge.CreateElement("feMergeNode")
	source := merge.CreateElement("feMergeNode")
	source.CreateAttr("in", "SourceGraphic")
}
