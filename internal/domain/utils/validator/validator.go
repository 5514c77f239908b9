package validator

import (
	"strings"
	"unicode/utf8"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/go-playground/validator/v10"
)

// MaxContentLength is the byte mode capacity of a version 40 symbol at level L.
const MaxContentLength = 2953

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("qr_color", func(fl validator.FieldLevel) bool {
		return Color(fl.Field().String())
	})
	_ = v.RegisterValidation("qr_opaque_color", func(fl validator.FieldLevel) bool {
		return OpaqueColor(fl.Field().String())
	})
	_ = v.RegisterValidation("ec_level", func(fl validator.FieldLevel) bool {
		return ECLevel(fl.Field().String())
	})
	_ = v.RegisterValidation("qr_preset", func(fl validator.FieldLevel) bool {
		_, ok := qr.Preset(fl.Field().String())
		return ok
	})

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func Color(value string) bool {
	_, err := qr.ParseColor(value)
	return err == nil
}

// OpaqueColor accepts colors usable as module or canvas fill.
func OpaqueColor(value string) bool {
	_, err := qr.OpaqueColor(value)
	return err == nil
}

func ECLevel(value string) bool {
	_, err := qr.ParseECLevel(value)
	return err == nil
}

// Content accepts text that fits at least the lowest error correction level.
func Content(content string) bool {
	if strings.TrimSpace(content) == "" || !utf8.ValidString(content) {
		return false
	}
	return len(content) <= MaxContentLength
}
