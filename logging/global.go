// Package logging wraps log/slog with a console handler and an optional rotating JSON log file.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/bpmn-tools/config"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLogger
type Options struct {
	Env            string // Picks the console level when Level is empty
	Level          string
	LogDir         string // Empty disables the log file
	RetentionWeeks int
	MaxFileSize    int64
}

// InitLogger initializes the global logger instance and makes it the slog default
func InitLogger(opts Options) {
	level := GetConsoleLogLevel(opts.Env, opts.Level)

	var file *RotatingLogger
	if opts.LogDir != "" {
		rl, err := OpenRotatingLogger(opts.LogDir, opts.RetentionWeeks, opts.MaxFileSize)
		if err != nil {
			consoleLogger(level).Error("Failed to open log directory, logging to console only",
				"log_dir", opts.LogDir, "error", err)
		} else {
			file = rl
		}
	}

	DefaultLoggingService = &LoggingService{
		Logger: newLogger(level, GetFileLogLevel(opts.Level), file),
		file:   file,
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close flushes and closes the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	return DefaultLoggingService.file.Close()
}

// GetConsoleLogLevel returns the console level for an environment.
// An explicit level wins, except in test where the console only shows errors.
// Without one, dev logs info and staging/prod log warn.
func GetConsoleLogLevel(env, level string) slog.Level {
	switch strings.ToLower(env) {
	case config.EnvTest:
		return slog.LevelError
	case config.EnvProduction, config.EnvStaging:
		if level == "" {
			return slog.LevelWarn
		}
	}
	return parseLogLevel(level)
}

// GetFileLogLevel returns the file level: debug unless LOG_LEVEL says otherwise
func GetFileLogLevel(level string) slog.Level {
	if level == "" {
		return slog.LevelDebug
	}
	return parseLogLevel(level)
}

// parseLogLevel maps a level name to slog; unknown names fall back to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Console output goes to stderr; stdout is reserved for the tools' own report lines
func consoleLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func current(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		return consoleLogger(level)
	}
	return DefaultLoggingService.Logger
}

// Logger returns the initialized logger, or slog's default before InitLogger runs
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	current(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	current(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	current(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	current(slog.LevelDebug).Debug(msg, args...)
}
