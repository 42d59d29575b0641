// Package logging builds the zerolog logger used by batch runs.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string // json or console
	Output io.Writer

	// RunID tags every line with a "run" field. Empty generates one.
	RunID string
}

// New creates a logger for one run. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(output)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = NewRunID()
	}

	return zl.Level(ParseLevel(cfg.Level)).With().
		Timestamp().
		Str("run", runID).
		Logger()
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ParseLevel converts a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
