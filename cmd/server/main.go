package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tignatov6/CallMi/internal/app"
	"github.com/tignatov6/CallMi/internal/directory"
	httpx "github.com/tignatov6/CallMi/internal/http"
	signaling "github.com/tignatov6/CallMi/internal/signal"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Room directory: postgres when configured, in-memory for dev runs
	var dir directory.Directory
	if cfg.PGURL != "" {
		pg, err := directory.NewPostgres(ctx, cfg.PGURL, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := directory.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		dir = pg
	} else {
		logger.Warn("no PG_URL set, rooms will not survive a restart")
		dir = directory.NewMemory()
	}

	// Redis bus for room-list change events
	events, err := signaling.NewEventBus(ctx, cfg, logger)
	if err != nil {
		logger.Error("redis connect", "err", err)
		log.Fatal(err)
	}
	defer events.Close()

	// Connection registry + lobby fan-out
	registry := signaling.NewRegistry(logger)
	go events.Subscribe(ctx, registry.NotifyRoomsUpdated)

	// Background reclamation of empty, stale rooms
	reclaimer := signaling.NewReclaimer(logger, dir, registry, events, cfg.ReclaimInterval, cfg.StaleTimeout)
	go func() {
		if err := reclaimer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reclaimer.stopped", "err", err)
			cancel()
		}
	}()

	// HTTP + WS router
	sig := signaling.NewServer(logger, dir, registry)
	router := httpx.NewRouter(cfg, logger, sig, dir, events)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
