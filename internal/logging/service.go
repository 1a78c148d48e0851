package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crashwatch-go/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("app_id", cfg.AppID).Str("service", service).Logger()
}

func WithSession(base zerolog.Logger, sessionID string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Logger()
}
