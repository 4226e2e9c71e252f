package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Serverket/hermon-radio/internal/metrics"
)

// requireAdmin gates write endpoints behind the single configured admin
// credential pair. Unset credentials fail closed with a server error so
// operators can tell misconfiguration apart from a wrong password; a missing
// Authorization header is distinguished from a present-but-wrong one to
// support the clients' prompt/retry behavior.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.config.AdminConfigured() {
			metrics.AuthRejectionsTotal.WithLabelValues(metrics.AuthReasonNotConfigured).Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Admin credentials not set"})
		}

		user, pass, ok := c.Request().BasicAuth()
		if !ok {
			metrics.AuthRejectionsTotal.WithLabelValues(metrics.AuthReasonMissing).Inc()
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Basic")
			return c.NoContent(http.StatusUnauthorized)
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.config.AdminUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.config.AdminPass)) == 1
		if !userOK || !passOK {
			metrics.AuthRejectionsTotal.WithLabelValues(metrics.AuthReasonWrong).Inc()
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden"})
		}

		return next(c)
	}
}
