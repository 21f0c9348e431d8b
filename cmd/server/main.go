package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"swiss-hub/internal/api"
	"swiss-hub/internal/config"
	"swiss-hub/internal/database"
	"swiss-hub/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.CheckServer(); err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := database.Open(ctx, cfg.RowsBackend, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("rows backend unavailable", zap.String("backend", cfg.RowsBackend), zap.Error(err))
	}
	defer rows.Close()

	router := api.NewRouter(api.NewApiHandler(rows, logger), []byte(cfg.ServiceSecret))
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("backend", cfg.RowsBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
