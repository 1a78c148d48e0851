package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashwatch-go/internal/api"
	"crashwatch-go/internal/api/handlers"
	"crashwatch-go/internal/config"
	"crashwatch-go/internal/logging"
	"crashwatch-go/internal/services/alerts"
	"crashwatch-go/internal/services/messaging"
	"crashwatch-go/internal/services/publisher/mjpeg"
	"crashwatch-go/internal/services/session"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.Load()

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Tee logs into the embedded Logdy UI when enabled
	if cfg.LogdyEnabled {
		logdyWriter, url, err := logging.StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to start Logdy, console logging only")
		} else {
			console := zerolog.ConsoleWriter{Out: os.Stderr}
			log.Logger = log.Output(zerolog.MultiLevelWriter(console, logdyWriter))
			log.Info().Str("url", url).Msg("Log viewer enabled")
		}
	}

	log.Info().
		Str("app_id", cfg.AppID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("detector_mode", cfg.DetectorMode).
		Msg("Starting accident detection service")

	// NATS is optional: without it the service runs, alerts are dropped.
	var msgService *messaging.Service
	var alertPublisher *messaging.Service
	if cfg.AlertsEnabled {
		msgService, err = messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, alerts disabled")
		} else {
			alertPublisher = msgService
		}
	}

	var alertService *alerts.Service
	if alertPublisher != nil {
		alertService = alerts.NewService(cfg, alertPublisher)
	}

	previewPublisher := mjpeg.NewPublisher()

	var alerter session.Alerter
	if alertService != nil {
		alerter = alertService
	}
	manager := session.NewManager(cfg, previewPublisher, alerter)

	var messagingStatus handlers.MessagingStatus
	if msgService != nil {
		messagingStatus = msgService
	}
	server := api.NewServer(cfg, manager, previewPublisher, messagingStatus)
	if err := server.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up server")
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := manager.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Session manager forced to shutdown")
	}

	previewPublisher.Shutdown()

	if msgService != nil {
		if err := msgService.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Messaging shutdown failed")
		}
	}

	log.Info().Msg("Shutdown complete")
}
