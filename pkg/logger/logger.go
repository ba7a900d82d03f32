// Package logger configures the structured zerolog logger used across the service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger settings
type Config struct {
	Level  string
	Pretty bool
	Output io.Writer // defaults to stdout
}

// New creates a zerolog logger and sets the global level.
// Unknown or empty levels fall back to info.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Pretty {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
		return zerolog.New(output).With().Timestamp().Caller().Logger()
	}

	return zerolog.New(out).With().Timestamp().Caller().Logger()
}

// SetGlobalLogger replaces the package-level zerolog logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
