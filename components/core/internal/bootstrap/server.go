package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// Server represents the http server for the core service.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        mlog.Logger
	tracer        trace.Tracer
}

// ServerAddress is a convenience method to return the server address.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger mlog.Logger, tracer trace.Tracer) *Server {
	return &Server{
		app:           app,
		serverAddress: cfg.ServerAddress,
		logger:        logger,
		tracer:        tracer,
	}
}

// Run starts the http server with graceful shutdown on SIGINT/SIGTERM.
func (s *Server) Run(l *pkg.Launcher) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Infof("Server listening on %s", s.serverAddress)

		errCh <- s.app.Listen(s.serverAddress)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.logger.Infof("Signal %s received, draining http server", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return s.app.ShutdownWithContext(ctx)
	}
}
