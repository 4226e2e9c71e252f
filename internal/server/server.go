package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Serverket/hermon-radio/internal/broadcast"
	"github.com/Serverket/hermon-radio/internal/config"
	"github.com/Serverket/hermon-radio/internal/domain"
)

type overlayService interface {
	Current() domain.OverlayState
	Update(ctx context.Context, patch domain.Patch) (domain.OverlayState, error)
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       overlayService
	hub       *broadcast.Hub
	clock     clockwork.Clock
	pool      *pgxpool.Pool   // nil in memory-only mode
	redis     *goredis.Client // nil when the relay is disabled
	startTime time.Time
}

// NewServer wires the HTTP surface. pool and redis are optional and only
// used by the readiness probe.
func NewServer(cfg *config.Config, app overlayService, hub *broadcast.Hub, clock clockwork.Clock, pool *pgxpool.Pool, redis *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		// The snapshot read doubles as the clients' polling fallback and the
		// streams are long-lived; both are tracked in metrics instead of
		// flooding the log.
		Skipper: func(c echo.Context) bool {
			if c.Path() == "/overlay" && c.Request().Method == http.MethodGet {
				return true
			}
			switch c.Path() {
			case "/overlay/stream", "/overlay/ws", "/metrics", "/health/live", "/health/ready":
				return true
			}
			return false
		},
		LogStatus: true,
		LogMethod: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("Request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				slog.Info("Request handled", "method", v.Method, "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		hub:       hub,
		clock:     clock,
		pool:      pool,
		redis:     redis,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
