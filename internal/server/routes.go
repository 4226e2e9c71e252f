package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public overlay routes. The read endpoint doubles as the clients'
	// polling fallback and must stay cheap.
	s.echo.GET("/overlay", s.handleOverlayRead)
	s.echo.GET("/overlay/stream", s.handleOverlayStream)
	s.echo.GET("/overlay/ws", s.handleOverlayWS)

	// Admin routes (Basic auth)
	s.echo.PUT("/overlay", s.handleOverlayUpdate, s.requireAdmin)
	s.echo.GET("/overlay/auth-check", s.handleAuthCheck, s.requireAdmin)
}
