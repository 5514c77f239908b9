package qr

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/image/colornames"
)

// primitives are the SVG shapes that receive the foreground color.
var primitives = map[string]bool{
	"rect":     true,
	"path":     true,
	"circle":   true,
	"polygon":  true,
	"ellipse":  true,
	"line":     true,
	"polyline": true,
}

// ApplyColors overwrites the fill of every module primitive with foreground
// and of the background node with background. Both values are normalized with
// OpaqueColor first; on an invalid value img is left untouched.
func ApplyColors(img *Image, foreground, background string) (*Image, error) {
	fg, err := OpaqueColor(foreground)
	if err != nil {
		return nil, err
	}
	bg, err := OpaqueColor(background)
	if err != nil {
		return nil, err
	}

	img.Root().CreateAttr("style", "background-color:"+bg)
	walkGraphics(img.Root(), func(el *etree.Element) {
		switch {
		case isLogoElement(el):
		case hasClass(el, ClassBackground):
			el.CreateAttr("fill", bg)
		case primitives[el.Tag]:
			el.CreateAttr("fill", fg)
		}
	})

	img.foreground = fg
	img.background = bg
	return img, nil
}

// walkGraphics is walk without descending into <defs>, whose shapes are
// clip geometry rather than visible modules.
func walkGraphics(el *etree.Element, fn func(el *etree.Element)) {
	for _, child := range el.ChildElements() {
		if child.Tag == "defs" {
			continue
		}
		fn(child)
		walkGraphics(child, fn)
	}
}

// CanonicalColor normalizes any accepted color notation to lowercase #rrggbb.
// Alpha is dropped.
func CanonicalColor(s string) (string, error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
}

// OpaqueColor is CanonicalColor restricted to fully opaque values. Module and
// canvas fills use it: a translucent fill would collapse to a different
// color once alpha is dropped.
func OpaqueColor(s string) (string, error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	if c.A != 0xff {
		return "", &InvalidColorError{Value: s, Reason: "must be opaque"}
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
}

// ParseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(), hsl(),
// hsla(), CSS color names and "transparent".
func ParseColor(s string) (color.NRGBA, error) {
	value := strings.ToLower(strings.TrimSpace(s))
	if value == "" {
		return color.NRGBA{}, &InvalidColorError{Value: s}
	}

	var (
		c   color.NRGBA
		err error
	)
	switch {
	case value == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(value, "#"):
		c, err = parseHex(value[1:])
	case strings.HasPrefix(value, "rgb"):
		c, err = parseFunc(value, "rgb", parseRGB)
	case strings.HasPrefix(value, "hsl"):
		c, err = parseFunc(value, "hsl", parseHSL)
	default:
		named, ok := colornames.Map[value]
		if !ok {
			return color.NRGBA{}, &InvalidColorError{Value: s}
		}
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: named.A}, nil
	}
	if err != nil {
		return color.NRGBA{}, &InvalidColorError{Value: s}
	}
	return c, nil
}

func parseHex(hex string) (color.NRGBA, error) {
	switch len(hex) {
	case 3, 4:
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("hex color must have 3, 4, 6 or 8 digits")
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// parseFunc unwraps name(...) or name + "a"(...) and hands the arguments to parse.
func parseFunc(value, name string, parse func(args []string) (color.NRGBA, error)) (color.NRGBA, error) {
	body := strings.TrimPrefix(value, name)
	body = strings.TrimPrefix(body, "a")
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return color.NRGBA{}, fmt.Errorf("malformed %s() color", name)
	}
	body = body[1 : len(body)-1]
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	args := strings.Fields(body)
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, fmt.Errorf("%s() takes 3 or 4 arguments, got %d", name, len(args))
	}
	return parse(args)
}

func parseRGB(args []string) (color.NRGBA, error) {
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(args[i], 255)
		if err != nil {
			return color.NRGBA{}, err
		}
		channels[i] = uint8(math.Round(v))
	}
	alpha, err := parseAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: alpha}, nil
}

func parseHSL(args []string) (color.NRGBA, error) {
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, err
	}
	if !strings.HasSuffix(args[1], "%") || !strings.HasSuffix(args[2], "%") {
		return color.NRGBA{}, fmt.Errorf("hsl() saturation and lightness must be percentages")
	}
	s, err := parseChannel(args[1], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	l, err := parseChannel(args[2], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	alpha, err := parseAlpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}

	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	r, g, b := hslToRGB(h, s, l)
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// parseChannel reads a number or a percentage of max and rejects values outside [0, max].
func parseChannel(arg string, max float64) (float64, error) {
	var (
		v   float64
		err error
	)
	if strings.HasSuffix(arg, "%") {
		v, err = strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
		v = v / 100 * max
	} else {
		v, err = strconv.ParseFloat(arg, 64)
	}
	if err != nil {
		return 0, err
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("channel %s out of range", arg)
	}
	return v, nil
}

func parseAlpha(args []string) (uint8, error) {
	if len(args) < 4 {
		return 255, nil
	}
	a, err := parseChannel(args[3], 1)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(a * 255)), nil
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}
