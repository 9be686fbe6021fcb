/*
Package logx wraps zerolog and owns the process-wide logger configuration.

It initializes the global logger once at startup, switches between a
human-readable console writer (development) and plain JSON output
(production), and exposes small leveled helpers used across the server.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global zerolog instance.
// Development mode lowers the level to Debug and writes colored console
// output; production mode keeps Info level JSON. Every entry carries a
// Unix timestamp and the caller location.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger. Components derive contextual
// loggers from it with With().Str("component", ...).
func Logger() *zerolog.Logger {
	return &log.Logger
}

// evenFields drops the field list when it is not made of key/value pairs,
// which would otherwise make zerolog panic.
func evenFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msg("logx called with an odd number of fields; fields dropped")
		return nil
	}
	return fields
}

// Debug records a message at Debug level with optional key/value fields.
func Debug(msg string, fields ...any) {
	Logger().Debug().
		Fields(evenFields("Debug", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Info records a message at Info level with optional key/value fields.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(evenFields("Info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn records a message at Warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(evenFields("Warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error records an error with a message and optional key/value fields.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(evenFields("Error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal records the error and terminates the process with exit code 1.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(evenFields("Fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}
