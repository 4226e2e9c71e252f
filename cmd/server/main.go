package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Serverket/hermon-radio/internal/app"
	"github.com/Serverket/hermon-radio/internal/broadcast"
	"github.com/Serverket/hermon-radio/internal/config"
	"github.com/Serverket/hermon-radio/internal/database"
	"github.com/Serverket/hermon-radio/internal/domain"
	"github.com/Serverket/hermon-radio/internal/logging"
	"github.com/Serverket/hermon-radio/internal/relay"
	"github.com/Serverket/hermon-radio/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, overlay state is kept in memory only")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// fanOutPublisher delivers applied states to local subscribers and, when the
// relay is configured, to peer instances.
type fanOutPublisher struct {
	hub   *broadcast.Hub
	relay *relay.Relay
}

func (p fanOutPublisher) Publish(state domain.OverlayState) {
	p.hub.Publish(state)
	if p.relay != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p.relay.Publish(ctx, state)
	}
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, hub *broadcast.Hub, rly *relay.Relay) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		if rly != nil {
			rly.Stop()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	if !cfg.AdminConfigured() {
		slog.Warn("Admin credentials not set, write endpoints will fail closed")
	}

	pool := setupDB(cfg)
	if pool != nil {
		defer pool.Close()
	}

	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	hub := broadcast.NewHub()

	var store app.Store
	if pool != nil {
		store = database.NewOverlayRepo(pool)
	}

	// The relay's apply callback closes over svc; messages only start
	// flowing once rly.Start runs below.
	var svc *app.Service
	var rly *relay.Relay
	if redisClient != nil {
		rly = relay.New(redisClient, func(state domain.OverlayState) {
			svc.ApplyRemote(state)
		})
	}

	svc = app.NewService(store, fanOutPublisher{hub: hub, relay: rly}, hub, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := svc.Init(ctx)
	cancel()
	if err != nil {
		slog.Error("Failed to initialize overlay state", "error", err)
		os.Exit(1)
	}
	hub.SetSnapshot(svc.Current())

	if rly != nil {
		rly.Start()
	}

	srv := server.NewServer(cfg, svc, hub, clock, pool, redisClient)

	done := runGracefulShutdown(cfg, srv, hub, rly)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
