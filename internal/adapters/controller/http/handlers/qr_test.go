package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: errorz.ErrExportNotFound, want: fiber.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", errorz.ErrNoSinks), want: fiber.StatusConflict},
		{err: &qr.InvalidColorError{Value: "x"}, want: fiber.StatusBadRequest},
		{err: &qr.EncodingError{Level: qr.ECLevelH, Err: qr.ErrInvalidOptions}, want: fiber.StatusBadRequest},
		{err: &qr.EncodingError{Level: qr.ECLevelH, Err: qr.ErrContentTooLong}, want: fiber.StatusRequestEntityTooLarge},
		{err: errorz.ErrInvalidFormat, want: fiber.StatusBadRequest},
		{err: &qr.RasterizationError{Err: errors.New("bad")}, want: fiber.StatusInternalServerError},
		{err: errors.New("database down"), want: fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}
