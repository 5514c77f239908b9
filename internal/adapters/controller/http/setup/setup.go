package setup

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Badsnus/qrstudio/internal/adapters/controller/http/handlers"
	"github.com/Badsnus/qrstudio/internal/domain/dto"
)

type Options struct {
	BodyLimitBytes int
	// RateLimit is the number of requests per RateWindow and client IP; zero
	// disables the limiter.
	RateLimit  int
	RateWindow time.Duration
	Debug      bool
}

// New builds the fiber application with every route registered.
func New(h *handlers.Handler, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "qrstudio",
		BodyLimit:             opts.BodyLimitBytes,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse(err.Error()))
		},
	})

	app.Use(recover.New())
	if opts.Debug {
		app.Use(logger.New())
	}
	if opts.RateLimit > 0 {
		window := opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse("rate limit exceeded"))
			},
		}))
	}

	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Post("/qr", h.Render)
	api.Get("/qr/presets", h.Presets)

	exports := api.Group("/exports")
	exports.Get("/", h.ListExports)
	exports.Get("/:key", h.GetExport)

	return app
}
