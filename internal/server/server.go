package server

import (
	"docsearch-console/internal/bootstrap"
	"docsearch-console/internal/config"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Server is the mock document search backend.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.MockContainer
	logger    logger.ILogger
}

func New(cfg *config.Config, container *bootstrap.MockContainer) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		ErrorHandler:          serverutils.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
		logger:    container.Logger,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("Server", "Mock backend listening", map[string]interface{}{
		"address": "http://localhost:" + s.cfg.Mock.Port + "/api",
	})
	return s.app.Listen(":" + s.cfg.Mock.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.MockContainer) {
	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.ProviderController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)
}
