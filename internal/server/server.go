package server

import (
	"github.com/hoanghaiduong/gym-food-rag/internal/bootstrap"
	"github.com/hoanghaiduong/gym-food-rag/internal/config"
	"github.com/hoanghaiduong/gym-food-rag/internal/metrics"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024, // 1MB, questions are short
		ErrorHandler: serverutils.ErrorHandler,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	if cfg.Tracing.Enabled {
		app.Use(otelfiber.Middleware())
	}

	// Metrics sits outside the error renderer so it records the final status.
	app.Use(metrics.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{
		"port": s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{
			"semantic_cache_ready": c.SemanticCache.Ready(),
		}))
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	c.ChatController.RegisterRoutes(api)
	c.HistoryController.RegisterRoutes(api)
	c.KnowledgeController.RegisterRoutes(api)
}
