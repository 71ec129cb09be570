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

	"github.com/dockopt/dockopt-backend/config"
	"github.com/dockopt/dockopt-backend/internal/bootstrap"
	"github.com/dockopt/dockopt-backend/internal/logging"
	cronjob "github.com/dockopt/dockopt-backend/internal/optimizer/cron"
	"github.com/dockopt/dockopt-backend/internal/optimizer/llm"
	"github.com/dockopt/dockopt-backend/internal/optimizer/service"
	"go.uber.org/zap"
)

const serviceName = "dockopt-backend"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	store, releaseStore, err := bootstrap.OpenSessionStore(ctx, cfg.Session, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseStore(releaseCtx)
	}()

	if cfg.AI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; optimize, suggestions and chat will fail upstream")
	}
	aiClient := llm.NewOpenAIClient(llm.Options{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})

	optimizer := service.NewOptimizerService(store, aiClient, logger)

	if cfg.App.StatsCron != "" {
		scheduler := cronjob.NewScheduler(store, aiClient, logger)
		if err := scheduler.Start(cfg.App.StatsCron); err != nil {
			logger.Fatal("failed to start stats scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Store:       store,
		Optimizer:   optimizer,
		AIMetrics:   aiClient,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("listening",
		zap.String("addr", srv.Addr),
		zap.String("model", cfg.AI.Model),
		zap.String("session_backend", cfg.Session.Backend),
	)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
