// Package logging provides the process-wide zerolog logger.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("root", dir).Int("files", n).Msg("files found")
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error. Default: info.
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`

	// Format is json or console. Default: console.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Output defaults to os.Stderr.
	Output io.Writer `koanf:"-"`
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging works before Init is called
func init() {
	initLogger(Config{})
}

// Init reconfigures the global logger. It is safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
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
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With returns a context for building a child logger.
func With() zerolog.Context {
	l := Logger()
	return l.With()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info level event.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warn level event.
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}
