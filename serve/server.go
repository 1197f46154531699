// Package serve exposes the tool registry and the audit log over HTTP.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/everydev1618/vegadock/store"
	"github.com/everydev1618/vegadock/tools"
)

// Config holds server configuration.
type Config struct {
	Addr string

	// DockerPing checks engine connectivity for /healthz.
	DockerPing func(ctx context.Context) error
}

// Registry is the tool table served over HTTP. *tools.Tools satisfies it.
type Registry interface {
	Schema() []tools.Schema
	Invoke(ctx context.Context, name string, params map[string]any) (tools.Result, error)
}

// Server is the HTTP dispatcher.
type Server struct {
	tools     Registry
	store     store.Store
	cfg       Config
	app       *fiber.App
	startedAt time.Time
}

// New creates a Server. st may be nil when auditing is disabled.
func New(reg Registry, st store.Store, cfg Config) *Server {
	s := &Server{
		tools:     reg,
		store:     st,
		cfg:       cfg,
		startedAt: time.Now(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "vegadock",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger)
	s.registerRoutes()
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// registerRoutes adds all API routes.
func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)

	v1 := s.app.Group("/api").Group("/v1")
	v1.Get("/tools", s.handleListTools)
	v1.Post("/tools/:name", s.handleCallTool)
	v1.Get("/calls", s.handleListCalls)
}

// Start listens for HTTP requests. It blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("vegadock http started", "addr", s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		return err
	}

	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	return nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	slog.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start))
	return err
}
