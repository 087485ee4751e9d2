// Package logging configures the zerolog pipeline: console output on
// stderr, a per-session log file, and an optional GELF sink. Stdout is
// reserved for the directive stream and never receives log output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// Options configures Setup.
type Options struct {
	// Level is the minimum level name (trace, debug, info, warn, error).
	Level string
	// LogsDir receives the log file; it is created if missing.
	LogsDir string
	// AppName prefixes the log file name.
	AppName string
	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
	// GraylogEnabled adds a GELF UDP writer to the sink set.
	GraylogEnabled bool
	// GraylogAddress is the host:port of the GELF endpoint.
	GraylogAddress string
}

// Manager owns the configured loggers and their underlying sinks.
type Manager struct {
	logger zerolog.Logger
	trace  zerolog.Logger
	file   *os.File
	gelf   *gelf.Writer
}

// Setup builds the log pipeline. The returned manager's primary logger
// filters at the configured level; hooks run on every surviving event.
func Setup(opts Options, hooks ...zerolog.Hook) (*Manager, error) {
	level := parseLevel(opts.Level)

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	if err := os.MkdirAll(opts.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating logs dir: %w", err)
	}
	path := LogFilePath(opts.LogsDir, opts.AppName, time.Now().UTC())
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating log file: %w", err)
	}

	writers := []io.Writer{
		// console format with colors for the terminal
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
		// console format without colors to file
		zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	}

	var gelfWriter *gelf.Writer
	var gelfErr error
	if opts.GraylogEnabled {
		gelfWriter, gelfErr = gelf.NewWriter(opts.GraylogAddress)
		if gelfErr == nil {
			// GELF receives the raw JSON events
			writers = append(writers, gelfWriter)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger().
		Hook(hooks...)

	trace := logger.With().
		Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		// allow max 5 entries per 10 seconds
		// once reached, sample 1 in 100
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})

	if gelfErr != nil {
		logger.Warn().Err(gelfErr).
			Str("address", opts.GraylogAddress).
			Msg("Graylog sink unavailable, continuing without it")
	}
	logger.Info().
		Str("logLevel", level.String()).
		Str("logFile", path).
		Msg("Logging set up")

	return &Manager{logger: logger, trace: trace, file: file, gelf: gelfWriter}, nil
}

// Logger returns the primary logger.
func (m *Manager) Logger() zerolog.Logger {
	return m.logger
}

// Trace returns the burst-sampled logger for per-tick events.
func (m *Manager) Trace() zerolog.Logger {
	return m.trace
}

// Close releases the log file and the GELF connection, if any.
func (m *Manager) Close() error {
	var firstErr error
	if m.gelf != nil {
		if err := m.gelf.Close(); err != nil {
			firstErr = err
		}
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
