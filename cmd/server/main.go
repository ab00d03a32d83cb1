// Package main runs the locker-metrics service: it periodically fetches the
// published liquid locker snapshot, guards against regressions and serves
// comparison views over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/locker-metrics/internal/config"
	"github.com/yourorg/locker-metrics/internal/fetch"
	"github.com/yourorg/locker-metrics/internal/otel"
)

// main is the entry point for the application
func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	if err := setupLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Logging setup failed")
	}

	shutdownTracer := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	source := fetch.NewClient(cfg.SnapshotURL, fetch.Options{
		Timeout:  cfg.RequestTimeout,
		RetryMax: cfg.FetchRetryMax,
		Logger:   logrus.StandardLogger(),
	})

	server, err := NewServer(cfg, source)
	if err != nil {
		logrus.WithError(err).Fatal("Server setup failed")
	}
	server.Start()
}

// Start runs the refresh loop and the HTTP server until SIGINT or SIGTERM.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.refreshLoop(ctx)

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	logrus.Info("Server stopped")
}

// refreshLoop fetches immediately, then on every refresh interval.
func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		if err := s.Refresh(ctx); err != nil {
			logrus.WithError(err).Warn("Snapshot refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
