package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deepfake-detector/config"
	"deepfake-detector/internal/api/httpapi"
	"deepfake-detector/internal/api/telegram"
	"deepfake-detector/internal/container"
	"deepfake-detector/internal/infrastructure/logging"
	"deepfake-detector/internal/infrastructure/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Config{}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting deepfake detector", "addr", cfg.HTTPAddr, "backend", cfg.DetectorBackend)

	recorder := metrics.NewRecorder()

	// Без моделей сервис не запускается.
	appContainer, err := container.New(cfg, logger, recorder)
	if err != nil {
		logger.Error("failed to load models", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			logger.Error("failed to release models", "error", err)
		}
	}()

	handler := httpapi.NewHandler(appContainer.DetectionService, httpapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadDir:      cfg.UploadDir,
		StaticPrefix:   cfg.ResultURLPrefix,
		Metrics:        recorder.Handler(),
	}, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.DetectionService,
			cfg.UploadDir, cfg.MaxUploadBytes, logger)
		if err != nil {
			logger.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := bot.Run(ctx); err != nil {
				errCh <- err
			}
		}()
		logger.Info("telegram bot is running")
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, telegram bot disabled")
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.InferenceTimeout+5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("deepfake detector stopped")
}
