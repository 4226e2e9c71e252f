package broadcast

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second
)

// ServeConn pumps a subscriber's snapshots into a WebSocket connection,
// interleaving pings, until the subscriber channel closes, a write fails, or
// done is signalled by the caller's read pump. It does not close the
// connection; the caller owns its lifecycle.
func ServeConn(conn *websocket.Conn, sub *Subscriber, clock clockwork.Clock, done <-chan struct{}) {
	conn.SetReadDeadline(clock.Now().Add(pongDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(clock.Now().Add(pongDeadline))
	})

	ticker := clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.Updates():
			if !ok {
				return
			}
			conn.SetWriteDeadline(clock.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			conn.SetWriteDeadline(clock.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
