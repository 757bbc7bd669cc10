package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/mailcycle/internal/config"
)

// NewLogger creates a structured zerolog.Logger for the given service
// ("api" or "worker") at the configured level.
func NewLogger(cfg *config.Config, service string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
