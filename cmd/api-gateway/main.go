package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-admissions-api/api/swagger"
	"github.com/noah-isme/sma-admissions-api/internal/bootstrap"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	"github.com/noah-isme/sma-admissions-api/pkg/config"
	"github.com/noah-isme/sma-admissions-api/pkg/logger"
)

// @title SMA Admissions API
// @version 1.0.0
// @description Inquiry intake, case identity allocation and spreadsheet mirror sync
// @BasePath /api/v1
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to assemble services", zap.Error(err))
	}

	container.SyncQueue.Start(ctx)

	var scheduler *service.SweepScheduler
	if cfg.SheetSync.SweepSchedule != "" {
		scheduler, err = service.NewSweepScheduler(container.Sync, cfg.SheetSync.SweepSchedule, 0, logr)
		if err != nil {
			logr.Fatal("invalid sweep schedule", zap.String("schedule", cfg.SheetSync.SweepSchedule), zap.Error(err))
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           bootstrap.NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	container.SyncQueue.Stop()
	container.Close()
	logr.Info("server stopped")
}
