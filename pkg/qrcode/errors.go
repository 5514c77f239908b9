package qr

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyContent   = errors.New("content is empty")
	ErrContentTooLong = errors.New("content exceeds symbol capacity")
	ErrInvalidOptions = errors.New("invalid render options")
	ErrLogoDecode     = errors.New("logo image cannot be decoded")
)

// EncodingError is returned when content cannot be turned into a symbol at
// the requested error correction level.
type EncodingError struct {
	Level ECLevel
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode at level %s: %v", e.Level, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// InvalidColorError reports a color value outside the accepted grammar.
type InvalidColorError struct {
	Value  string
	Reason string
}

func (e *InvalidColorError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid color %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid color %q", e.Value)
}

// LogoTooSmallError is raised for logo rasters below MinLogoSide on either axis.
type LogoTooSmallError struct {
	Width  int
	Height int
}

func (e *LogoTooSmallError) Error() string {
	return fmt.Sprintf("logo is %dx%d, at least %dx%d required", e.Width, e.Height, MinLogoSide, MinLogoSide)
}

// LogoTooLargeError is raised for logo rasters above MaxLogoSide on either
// axis, before the pixels are decoded.
type LogoTooLargeError struct {
	Width  int
	Height int
}

func (e *LogoTooLargeError) Error() string {
	return fmt.Sprintf("logo is %dx%d, at most %dx%d allowed", e.Width, e.Height, MaxLogoSide, MaxLogoSide)
}

// RasterizationError wraps failures while turning vector data into pixels.
// The vector image itself stays valid and can be exported again.
type RasterizationError struct {
	Err error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterize: %v", e.Err)
}

func (e *RasterizationError) Unwrap() error {
	return e.Err
}

func rasterErrorf(format string, args ...interface{}) error {
	return &RasterizationError{Err: fmt.Errorf(format, args...)}
}
