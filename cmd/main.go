/*
Package main is the entry point for the portal sync engine.

It loads configuration, initializes the global logger, opens the durable store,
builds the engine components, resumes any persisted session and serves the local
UI bridge until SIGINT or SIGTERM, then shuts everything down in order.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"portalsync/internal/app/chat"
	"portalsync/internal/app/notify"
	"portalsync/internal/app/session"
	"portalsync/internal/app/store"
	"portalsync/internal/app/survey"
	"portalsync/internal/app/user"
	"portalsync/internal/configs"
	"portalsync/internal/handler"
	"portalsync/internal/pkg/limiter"
	"portalsync/internal/pkg/logx"
)

const (
	// ConnectRate and ConnectBurst bound event stream connections per client address.
	ConnectRate  = 0.2
	ConnectBurst = 5
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.Addr()).
		Str("store_backend", cfg.StoreBackend).
		Dur("sync_interval", cfg.SyncInterval).
		Dur("notify_interval", cfg.NotifyInterval).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.New(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open durable store", "backend", cfg.StoreBackend)
	}

	// Background loops outlive the signal context so shutdown can stop them in order.
	engineCtx, cancelEngine := context.WithCancel(context.Background())
	defer cancelEngine()

	messages := chat.NewLog(s)
	logx.Info("Message log hydrated", "count", messages.Hydrate(ctx))

	profiles := user.NewRepository(s)
	sessions := session.NewManager(engineCtx, profiles, messages, survey.NewGate(s), session.Config{
		SyncInterval: cfg.SyncInterval,
		Notify: notify.Config{
			Interval:     cfg.NotifyInterval,
			DismissAfter: cfg.NotifyDismissAfter,
		},
	})

	if p, ok := sessions.Restore(ctx); ok {
		logx.Info("Resumed persisted session", "user", p.Name, "role", string(p.Role))
	}

	deps := &handler.AppDeps{
		Config:         cfg,
		Sessions:       sessions,
		Profiles:       profiles,
		SendLimiter:    limiter.NewKeyedLimiter(engineCtx, rate.Limit(cfg.SendRate), cfg.SendBurst),
		ConnectLimiter: limiter.NewKeyedLimiter(engineCtx, rate.Limit(ConnectRate), ConnectBurst),
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Portal bridge listening on http://%s", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	sessions.Shutdown()
	cancelEngine()

	if err := s.Close(); err != nil {
		logx.Error(err, "Failed to close durable store")
	}

	logx.Info("Server gracefully stopped.")
}
