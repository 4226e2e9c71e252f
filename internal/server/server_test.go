package server

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/Serverket/hermon-radio/internal/app"
	"github.com/Serverket/hermon-radio/internal/broadcast"
	"github.com/Serverket/hermon-radio/internal/config"
)

const (
	testAdminUser = "admin"
	testAdminPass = "secret"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		Port:            "0",
		AdminUser:       testAdminUser,
		AdminPass:       testAdminPass,
		CORSOrigins:     "*",
		SSEKeepAlive:    time.Minute,
		ShutdownTimeout: time.Second,
	}
}

// newTestServer wires a server against a memory-only service and a live hub.
// The WebSocket write pump derives connection deadlines from the clock, so
// tests exercising it need the real one.
func newTestServer(t *testing.T, cfg *config.Config) (*Server, *app.Service, *broadcast.Hub) {
	t.Helper()
	return newTestServerWithClock(t, cfg, clockwork.NewRealClock())
}

func newTestServerWithClock(t *testing.T, cfg *config.Config, clock clockwork.Clock) (*Server, *app.Service, *broadcast.Hub) {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}

	hub := broadcast.NewHub()
	t.Cleanup(hub.Stop)

	svc := app.NewService(nil, hub, hub, clock)
	require.NoError(t, svc.Init(context.Background()))
	hub.SetSnapshot(svc.Current())

	srv := NewServer(cfg, svc, hub, clock, nil, nil)
	return srv, svc, hub
}
