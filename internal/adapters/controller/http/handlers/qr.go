package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/dto"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type qrService interface {
	Render(ctx context.Context, req dto.RenderRequest) (*dto.RenderResult, error)
	GetExport(ctx context.Context, key string) (*entity.Export, error)
	ListExports(ctx context.Context, offset, limit int) ([]entity.Export, int64, error)
	Presets() []dto.Preset
}

type Handler struct {
	qrService qrService
	logger    *types.Logger
}

func New(qrService qrService, logger *types.Logger) *Handler {
	return &Handler{
		qrService: qrService,
		logger:    logger,
	}
}

// Render answers with the artifact body, or with a JSON envelope describing
// where it was delivered when the request asks to store it.
func (h *Handler) Render(c *fiber.Ctx) error {
	var req dto.RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("invalid request body"))
	}

	result, err := h.qrService.Render(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	if req.Store {
		return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(result, "QR code stored"))
	}

	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set("X-QR-Key", result.Key)
	if result.Cached {
		c.Set("X-QR-Cache", "hit")
	} else {
		c.Set("X-QR-Cache", "miss")
	}
	if len(result.Warnings) > 0 {
		c.Set("X-QR-Warnings", strings.Join(result.Warnings, "; "))
	}
	return c.Send(result.Data)
}

func (h *Handler) Presets(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse(h.qrService.Presets(), ""))
}

func (h *Handler) ListExports(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultPageLimit)
	if offset < 0 || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("offset and limit must be positive"))
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	exports, total, err := h.qrService.ListExports(c.UserContext(), offset, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.SuccessResponse(dto.ExportPage{
		Total:  total,
		Offset: offset,
		Limit:  limit,
		Items:  exports,
	}, ""))
}

func (h *Handler) GetExport(c *fiber.Ctx) error {
	export, err := h.qrService.GetExport(c.UserContext(), c.Params("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.SuccessResponse(export, ""))
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse(fiber.Map{"status": "ok"}, ""))
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(dto.ErrorResponse("internal error"))
	}
	return c.Status(status).JSON(dto.ErrorResponse(err.Error()))
}

// StatusOf maps domain and pipeline errors to HTTP status codes.
func StatusOf(err error) int {
	var (
		encodingErr   *qr.EncodingError
		colorErr      *qr.InvalidColorError
		logoErr       *qr.LogoTooSmallError
		validationErr validator.ValidationErrors
	)
	switch {
	case errors.Is(err, qr.ErrContentTooLong):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, errorz.ErrExportNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, errorz.ErrNoSinks):
		return fiber.StatusConflict
	case errors.Is(err, errorz.ErrInvalidRequest),
		errors.Is(err, errorz.ErrInvalidFormat),
		errors.Is(err, qr.ErrInvalidOptions),
		errors.Is(err, qr.ErrEmptyContent),
		errors.As(err, &encodingErr),
		errors.As(err, &colorErr),
		errors.As(err, &logoErr),
		errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
