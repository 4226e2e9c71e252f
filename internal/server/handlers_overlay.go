package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Serverket/hermon-radio/internal/domain"
	"github.com/Serverket/hermon-radio/internal/metrics"
)

func (s *Server) handleOverlayRead(c echo.Context) error {
	metrics.OverlayReadsTotal.Inc()
	return c.JSON(http.StatusOK, s.app.Current())
}

func (s *Server) handleOverlayUpdate(c echo.Context) error {
	patch := domain.Patch{}
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}

	state, err := s.app.Update(c.Request().Context(), patch)
	if err != nil {
		// The state is applied and broadcast; only persistence failed.
		metrics.OverlayWritesTotal.WithLabelValues(metrics.WriteStatusPersistError).Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to persist overlay state"})
	}

	metrics.OverlayWritesTotal.WithLabelValues(metrics.WriteStatusOK).Inc()
	return c.JSON(http.StatusOK, state)
}

// handleAuthCheck lets clients verify stored credentials before attempting a
// write. requireAdmin already did all the work.
func (s *Server) handleAuthCheck(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
