package qr

import (
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// Reserved class names. Color and radius passes skip the logo classes.
const (
	ClassBackground     = "qr-background"
	ClassModule         = "qr-module"
	ClassLogoBackground = "logo-background"
	ClassLogoImage      = "logo-image"
)

// Image is a rendered QR code held as an SVG document. It is created for a
// single render call and is not safe for concurrent mutation.
type Image struct {
	doc        *etree.Document
	sizePx     int
	foreground string
	background string

	// Warnings collects non-fatal problems, such as a logo that was skipped.
	Warnings []error
}

func newImage(sizePx int) *Image {
	doc := etree.NewDocument()
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", svgNamespace)
	svg.CreateAttr("width", strconv.Itoa(sizePx))
	svg.CreateAttr("height", strconv.Itoa(sizePx))
	svg.CreateAttr("viewBox", "0 0 "+strconv.Itoa(sizePx)+" "+strconv.Itoa(sizePx))
	return &Image{doc: doc, sizePx: sizePx}
}

// Root returns the <svg> element.
func (img *Image) Root() *etree.Element {
	return img.doc.Root()
}

func (img *Image) SizePx() int {
	return img.sizePx
}

// Foreground is the canonical module color, empty until ApplyColors ran.
func (img *Image) Foreground() string {
	return img.foreground
}

// Background is the canonical canvas color, empty until ApplyColors ran.
func (img *Image) Background() string {
	return img.background
}

// SVG serializes the document.
func (img *Image) SVG() (string, error) {
	return img.doc.WriteToString()
}

// Bytes serializes the document.
func (img *Image) Bytes() ([]byte, error) {
	return img.doc.WriteToBytes()
}

// Walk visits every element below the root in document order.
func (img *Image) Walk(fn func(el *etree.Element)) {
	walk(img.Root(), fn)
}

func walk(el *etree.Element, fn func(el *etree.Element)) {
	for _, child := range el.ChildElements() {
		fn(child)
		walk(child, fn)
	}
}

func (img *Image) warn(err error) {
	img.Warnings = append(img.Warnings, err)
}

func hasClass(el *etree.Element, class string) bool {
	for _, c := range strings.Fields(el.SelectAttrValue("class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

func isLogoElement(el *etree.Element) bool {
	return hasClass(el, ClassLogoBackground) || hasClass(el, ClassLogoImage)
}

// formatNumber keeps attribute values short and stable across runs.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
