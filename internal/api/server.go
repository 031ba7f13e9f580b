// Package api exposes the intake engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/intake-agent/internal/health"
	"github.com/p-blackswan/intake-agent/internal/metrics"
	"github.com/p-blackswan/intake-agent/internal/requestid"
	"github.com/p-blackswan/intake-agent/internal/session"
)

const defaultListenAddr = ":8080"

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORSOrigins []string
}

// Server is the intake API Fiber application.
type Server struct {
	app    *fiber.App
	cancel context.CancelFunc
	logger zerolog.Logger
	config ServerConfig
}

// NewServer creates and configures the API server.
func NewServer(
	cfg ServerConfig,
	sessions *session.Manager,
	checker *health.Checker,
	metricsCollector *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             2 * 1024 * 1024,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:    app,
		cancel: cancel,
		logger: logger.With().Str("component", "api_server").Logger(),
		config: cfg,
	}

	s.setupMiddleware(ctx, cfg)
	s.setupRoutes(NewHandlers(sessions, logger), checker, metricsCollector)
	return s
}

func (s *Server) setupMiddleware(ctx context.Context, cfg ServerConfig) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.Middleware())

	if len(cfg.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + requestid.Header + ", " + UserHeader,
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		s.app.Use(NewRateLimitMiddleware(ctx, cfg.RateLimit))
	}

	s.app.Use(NewAuthMiddleware(cfg.Auth, s.logger))

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}
		err := c.Next()
		log := requestid.Logger(c.UserContext(), s.logger)
		log.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("user", userFrom(c)).
			Int("status", c.Response().StatusCode()).
			Msg("api request")
		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, checker *health.Checker, metricsCollector *metrics.Metrics) {
	s.app.Get("/healthz", health.Liveness)
	if checker != nil {
		s.app.Get("/readyz", checker.Readiness)
	} else {
		s.app.Get("/readyz", health.Liveness)
	}

	if metricsCollector != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(metricsCollector.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	svc := s.app.Group("/api/v1/services/:service")
	svc.Get("/session", h.GetSession)
	svc.Post("/messages", h.PostMessage)
	svc.Post("/speech", h.PostSpeech)
	svc.Post("/attachments", h.PostAttachment)
	svc.Post("/approval", h.PostApproval)
	svc.Post("/reset", h.PostReset)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	s.logger.Info().Str("addr", addr).Msg("intake API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("intake API server shutting down")
	s.cancel()
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}
