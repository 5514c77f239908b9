package qr

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Rasterize draws an SVG document produced by this package onto a bitmap
// scaled by scale. It understands rect (with rx/ry), circle (with the drop
// shadow filter), image (data URIs with a circular clip-path) and g. Other
// elements are ignored. Malformed input yields a *RasterizationError.
func Rasterize(svg []byte, scale float64) (image.Image, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, rasterErrorf("scale must be positive, got %g", scale)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svg); err != nil {
		return nil, &RasterizationError{Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, rasterErrorf("document has no <svg> root")
	}

	width, err := numberAttr(root, "width", -1)
	if err != nil {
		return nil, err
	}
	height, err := numberAttr(root, "height", -1)
	if err != nil {
		return nil, err
	}
	w := int(math.Round(width * scale))
	h := int(math.Round(height * scale))
	if w <= 0 || h <= 0 {
		return nil, rasterErrorf("invalid canvas %gx%g at scale %g", width, height, scale)
	}
	if w > MaxCanvasPx || h > MaxCanvasPx {
		return nil, rasterErrorf("canvas %dx%d exceeds %dx%d", w, h, MaxCanvasPx, MaxCanvasPx)
	}

	r := &rasterizer{
		dc:    gg.NewContext(w, h),
		scale: scale,
		ids:   make(map[string]*etree.Element),
	}
	walk(root, func(el *etree.Element) {
		if id := el.SelectAttrValue("id", ""); id != "" {
			r.ids[id] = el
		}
	})

	if bg := styleProperty(root.SelectAttrValue("style", ""), "background-color"); bg != "" {
		c, err := ParseColor(bg)
		if err != nil {
			return nil, &RasterizationError{Err: err}
		}
		r.dc.SetColor(c)
		r.dc.Clear()
	}

	r.dc.Scale(scale, scale)
	if err = r.drawChildren(root); err != nil {
		return nil, err
	}
	return r.dc.Image(), nil
}

type rasterizer struct {
	dc    *gg.Context
	scale float64
	ids   map[string]*etree.Element
}

func (r *rasterizer) drawChildren(parent *etree.Element) error {
	for _, el := range parent.ChildElements() {
		var err error
		switch el.Tag {
		case "g":
			err = r.drawChildren(el)
		case "rect":
			err = r.drawRect(el)
		case "circle":
			err = r.drawCircle(el)
		case "image":
			err = r.drawImage(el)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *rasterizer) drawRect(el *etree.Element) error {
	fill, ok, err := fillColor(el)
	if err != nil || !ok {
		return err
	}
	var x, y, w, h, rx, ry float64
	for _, a := range []struct {
		dst  *float64
		name string
	}{{&x, "x"}, {&y, "y"}, {&w, "width"}, {&h, "height"}, {&rx, "rx"}, {&ry, "ry"}} {
		if *a.dst, err = numberAttr(el, a.name, 0); err != nil {
			return err
		}
	}
	if w <= 0 || h <= 0 {
		return nil
	}

	// Edges are snapped to device pixels so adjacent modules share an exact
	// boundary instead of two half-covered anti-aliased columns.
	x0, y0 := math.Round(x*r.scale), math.Round(y*r.scale)
	x1, y1 := math.Round((x+w)*r.scale), math.Round((y+h)*r.scale)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	radius := math.Max(rx, ry) * r.scale
	radius = math.Min(radius, math.Min(x1-x0, y1-y0)/2)

	r.dc.Push()
	defer r.dc.Pop()
	r.dc.Identity()
	if radius > 0 {
		r.dc.DrawRoundedRectangle(x0, y0, x1-x0, y1-y0, radius)
	} else {
		r.dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	}
	r.dc.SetColor(fill)
	r.dc.Fill()
	return nil
}

func (r *rasterizer) drawCircle(el *etree.Element) error {
	fill, ok, err := fillColor(el)
	if err != nil || !ok {
		return err
	}
	cx, err := numberAttr(el, "cx", 0)
	if err != nil {
		return err
	}
	cy, err := numberAttr(el, "cy", 0)
	if err != nil {
		return err
	}
	radius, err := numberAttr(el, "r", 0)
	if err != nil || radius <= 0 {
		return err
	}

	if filter := r.reference(el.SelectAttrValue("filter", "")); filter != nil {
		if err = r.drawShadow(cx, cy, radius, filter); err != nil {
			return err
		}
	}

	r.dc.DrawCircle(cx, cy, radius)
	r.dc.SetColor(fill)
	r.dc.Fill()
	return nil
}

// drawShadow renders the feGaussianBlur + feFlood drop shadow on a separate
// layer, blurs it and composites it under the shape.
func (r *rasterizer) drawShadow(cx, cy, radius float64, filter *etree.Element) error {
	blur := 0.0
	if gaussian := filter.SelectElement("feGaussianBlur"); gaussian != nil {
		var err error
		if blur, err = numberAttr(gaussian, "stdDeviation", 0); err != nil {
			return err
		}
	}
	shadow := color.NRGBA{A: 255}
	if flood := filter.SelectElement("feFlood"); flood != nil {
		if value := flood.SelectAttrValue("flood-color", ""); value != "" {
			c, err := ParseColor(value)
			if err != nil {
				return &RasterizationError{Err: err}
			}
			shadow = c
		}
		opacity, err := numberAttr(flood, "flood-opacity", 1)
		if err != nil {
			return err
		}
		shadow.A = uint8(math.Round(float64(shadow.A) * math.Min(math.Max(opacity, 0), 1)))
	}
	if shadow.A == 0 {
		return nil
	}

	// The layer only spans the disc plus three standard deviations of blur.
	pad := math.Ceil(3*blur*r.scale) + 1
	left := int(math.Floor((cx-radius)*r.scale - pad))
	top := int(math.Floor((cy-radius)*r.scale - pad))
	side := int(math.Ceil(2*radius*r.scale + 2*pad))
	if side <= 0 {
		return nil
	}

	layer := gg.NewContext(side, side)
	layer.Translate(-float64(left), -float64(top))
	layer.Scale(r.scale, r.scale)
	layer.DrawCircle(cx, cy, radius)
	layer.SetColor(shadow)
	layer.Fill()

	var blurred image.Image = layer.Image()
	if blur > 0 {
		blurred = imaging.Blur(blurred, blur*r.scale)
	}
	r.dc.Push()
	r.dc.Identity()
	r.dc.DrawImage(blurred, left, top)
	r.dc.Pop()
	return nil
}

func (r *rasterizer) drawImage(el *etree.Element) error {
	href := el.SelectAttrValue("href", "")
	if href == "" {
		href = el.SelectAttrValue("xlink:href", "")
	}
	picture, err := decodeDataURI(href)
	if err != nil {
		return err
	}

	var x, y, w, h float64
	for _, a := range []struct {
		dst  *float64
		name string
	}{{&x, "x"}, {&y, "y"}, {&w, "width"}, {&h, "height"}} {
		if *a.dst, err = numberAttr(el, a.name, 0); err != nil {
			return err
		}
	}
	bounds := picture.Bounds()
	if w <= 0 || h <= 0 || bounds.Empty() {
		return nil
	}

	r.dc.Push()
	defer r.dc.Pop()
	if clip := r.reference(el.SelectAttrValue("clip-path", "")); clip != nil {
		if circle := clip.SelectElement("circle"); circle != nil {
			cx, errClip := numberAttr(circle, "cx", 0)
			if errClip != nil {
				return errClip
			}
			cy, errClip := numberAttr(circle, "cy", 0)
			if errClip != nil {
				return errClip
			}
			radius, errClip := numberAttr(circle, "r", 0)
			if errClip != nil {
				return errClip
			}
			r.dc.DrawCircle(cx, cy, radius)
			r.dc.Clip()
		}
	}
	r.dc.Translate(x, y)
	r.dc.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	r.dc.DrawImage(picture, -bounds.Min.X, -bounds.Min.Y)
	return nil
}

// reference resolves url(#id) against the document ids.
func (r *rasterizer) reference(value string) *etree.Element {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "url(#") || !strings.HasSuffix(value, ")") {
		return nil
	}
	return r.ids[value[len("url(#"):len(value)-1]]
}

func decodeDataURI(href string) (image.Image, error) {
	const prefix = "data:"
	if !strings.HasPrefix(href, prefix) {
		return nil, rasterErrorf("image href is not a data URI")
	}
	meta, payload, found := strings.Cut(href[len(prefix):], ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, rasterErrorf("image data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &RasterizationError{Err: err}
	}
	picture, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &RasterizationError{Err: err}
	}
	return picture, nil
}

// fillColor returns the fill of el; ok is false for fill="none".
func fillColor(el *etree.Element) (color.Color, bool, error) {
	value := el.SelectAttrValue("fill", "#000000")
	if value == "none" {
		return nil, false, nil
	}
	c, err := ParseColor(value)
	if err != nil {
		return nil, false, &RasterizationError{Err: err}
	}
	return c, true, nil
}

// numberAttr parses a numeric attribute, returning def when it is absent. A
// negative def marks the attribute as required.
func numberAttr(el *etree.Element, name string, def float64) (float64, error) {
	value := strings.TrimSpace(el.SelectAttrValue(name, ""))
	if value == "" {
		if def < 0 {
			return 0, rasterErrorf("<%s> is missing %s", el.Tag, name)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rasterErrorf("<%s> has malformed %s %q", el.Tag, name, value)
	}
	return v, nil
}

func styleProperty(style, property string) string {
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if found && strings.TrimSpace(name) == property {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		}
	}
	return ""
}
