package qr

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

var recoveryLevels = map[ECLevel]qrcode.RecoveryLevel{
	ECLevelL: qrcode.Low,
	ECLevelM: qrcode.Medium,
	ECLevelQ: qrcode.High,
	ECLevelH: qrcode.Highest,
}

// Symbol is an encoded QR symbol: a square module matrix plus the quiet zone
// requested by the caller. It is never modified after Encode returns.
type Symbol struct {
	modules [][]bool
	margin  float64
	level   ECLevel
	version int
}

// Encode turns content into a module matrix. It is the only place that talks
// to the encoding library; every call builds a fresh encoder.
func Encode(content string, level ECLevel, marginModules float64) (*Symbol, error) {
	if !level.Valid() {
		return nil, &EncodingError{Level: level, Err: ErrInvalidOptions}
	}
	if content == "" {
		return nil, &EncodingError{Level: level, Err: ErrEmptyContent}
	}
	if marginModules < 0 {
		marginModules = 0
	}

	code, err := qrcode.New(content, recoveryLevels[level])
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too long") {
			return nil, &EncodingError{Level: level, Err: ErrContentTooLong}
		}
		return nil, &EncodingError{Level: level, Err: err}
	}

	bitmap := code.Bitmap()
	side := 17 + 4*code.VersionNumber
	border := (len(bitmap) - side) / 2
	if border < 0 {
		border = 0
		side = len(bitmap)
	}

	modules := make([][]bool, side)
	for y := 0; y < side; y++ {
		modules[y] = make([]bool, side)
		copy(modules[y], bitmap[y+border][border:border+side])
	}

	return &Symbol{
		modules: modules,
		margin:  marginModules,
		level:   level,
		version: code.VersionNumber,
	}, nil
}

// Size is the number of modules per side, quiet zone excluded.
func (s *Symbol) Size() int {
	return len(s.modules)
}

// Dark reports whether the module at column x, row y is set.
func (s *Symbol) Dark(x, y int) bool {
	if y < 0 || y >= len(s.modules) || x < 0 || x >= len(s.modules) {
		return false
	}
	return s.modules[y][x]
}

func (s *Symbol) Margin() float64 {
	return s.margin
}

func (s *Symbol) Level() ECLevel {
	return s.level
}

func (s *Symbol) Version() int {
	return s.version
}

// ModuleSize is the side of one module when the symbol and its quiet zone
// are stretched over sizePx.
func (s *Symbol) ModuleSize(sizePx int) float64 {
	return float64(sizePx) / (float64(s.Size()) + 2*s.margin)
}

// Image lays the symbol out as a vector image of sizePx square. Modules are
// drawn black on white; ApplyColors overwrites both.
func (s *Symbol) Image(sizePx int) *Image {
	img := newImage(sizePx)
	root := img.Root()

	bg := root.CreateElement("rect")
	bg.CreateAttr("class", ClassBackground)
	bg.CreateAttr("x", "0")
	bg.CreateAttr("y", "0")
	bg.CreateAttr("width", formatNumber(float64(sizePx)))
	bg.CreateAttr("height", formatNumber(float64(sizePx)))
	bg.CreateAttr("fill", "#ffffff")

	moduleSize := s.ModuleSize(sizePx)
	offset := s.margin * moduleSize
	side := formatNumber(moduleSize)
	for y := 0; y < s.Size(); y++ {
		for x := 0; x < s.Size(); x++ {
			if !s.modules[y][x] {
				continue
			}
			rect := root.CreateElement("rect")
			rect.CreateAttr("class", ClassModule)
			rect.CreateAttr("x", formatNumber(offset+float64(x)*moduleSize))
			rect.CreateAttr("y", formatNumber(offset+float64(y)*moduleSize))
			rect.CreateAttr("width", side)
			rect.CreateAttr("height", side)
			rect.CreateAttr("fill", "#000000")
		}
	}

	return img
}
