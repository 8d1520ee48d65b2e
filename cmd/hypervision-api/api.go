// Package main provides the Hypervision API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/hypervision/hypervision/pkg/services"
	"github.com/hypervision/hypervision/pkg/web"
)

type API struct {
	logger   *slog.Logger
	boards   *services.Board
	feedback *services.Feedback
	links    *services.AccessLinks
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	boards *services.Board,
	feedback *services.Feedback,
	links *services.AccessLinks,
) *API {
	return &API{
		logger:   logger,
		boards:   boards,
		feedback: feedback,
		links:    links,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.boards, a.feedback, a.links, a.validate)

	app := fiber.New()
	app.Use(recoverer.New(recoverer.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			a.logger.Error("Recovered from panic", "method", c.Method(), "path", c.Path(), "panic", e)
		},
	}))
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Hypervision API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Starting Hypervision API", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
