package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Serverket/hermon-radio/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers and OBS browser sources connect from anywhere; the overlay
	// stream carries no secrets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleOverlayStream serves the SSE subscription. One full-state frame on
// connect, one per change, keep-alive comments in between; the connection
// stays open until the client goes away.
func (s *Server) handleOverlayStream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub.ID)

	keepalive := s.clock.NewTicker(s.config.SSEKeepAlive)
	defer keepalive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", msg); err != nil {
				return nil
			}
			res.Flush()
		case <-keepalive.Chan():
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// handleOverlayWS serves the WebSocket subscription, carrying the same
// full-state frames as the SSE stream.
func (s *Server) handleOverlayWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}
	defer conn.Close()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub.ID)

	// Read pump: subscribers send nothing, but reading is how we notice
	// the remote side disconnecting.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	broadcast.ServeConn(conn, sub, s.clock, done)
	return nil
}
