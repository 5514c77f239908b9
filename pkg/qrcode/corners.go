package qr

import (
	"strconv"

	"github.com/beevik/etree"
)

// RoundCorners sets rx/ry on every module rectangle. The canvas background and
// the logo disc keep their shape. A zero radius leaves the image untouched.
func RoundCorners(img *Image, radiusPx int) *Image {
	if radiusPx <= 0 {
		return img
	}
	radius := strconv.Itoa(radiusPx)
	walkGraphics(img.Root(), func(el *etree.Element) {
		if el.Tag != "rect" || hasClass(el, ClassBackground) || isLogoElement(el) {
			return
		}
		el.CreateAttr("rx", radius)
		el.CreateAttr("ry", radius)
	})
	return img
}
