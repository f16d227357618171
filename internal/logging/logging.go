// Package logging provides slog-based logging for the host and worker processes
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Custom logging levels (compatible with slog)
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug // -4
	LevelInfo  = slog.LevelInfo  // 0
	LevelWarn  = slog.LevelWarn  // 4
	LevelError = slog.LevelError // 8
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// LoggerFactory is a factory for creating logger instances.
// Loggers write to stderr by default: stdout carries the wire protocol
// on the worker side and must stay clean.
type LoggerFactory struct {
	writer  io.Writer
	level   slog.Level
	handler slog.Handler
}

// NewLoggerFactory creates a new factory with default settings
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithConfig(os.Stderr, LevelInfo)
}

// NewLoggerFactoryWithConfig creates a new factory with a custom writer and level
func NewLoggerFactoryWithConfig(w io.Writer, level slog.Level) *LoggerFactory {
	if w == nil {
		w = os.Stderr
	}

	f := &LoggerFactory{
		writer: w,
		level:  level,
	}
	f.rebuild()
	return f
}

// SetLevel sets the logging level for the factory
func (f *LoggerFactory) SetLevel(level slog.Level) {
	f.level = level
	f.rebuild()
}

// CreateLogger creates a new logger tagged with the given component name
func (f *LoggerFactory) CreateLogger(name string) *slog.Logger {
	return slog.New(f.handler).With("component", name)
}

func (f *LoggerFactory) rebuild() {
	options := &slog.HandlerOptions{
		Level:       f.level,
		ReplaceAttr: customizeLogLevels,
	}
	f.handler = slog.NewTextHandler(f.writer, options)
}

// customizeLogLevels customizes log level names
func customizeLogLevels(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		if name, ok := levelNames[level]; ok {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(name)}
		}
	}
	return a
}

// Trace logs at trace level
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.TODO(), LevelTrace, msg, args...)
}

// Debug logs at debug level
func Debug(logger *slog.Logger, msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs at info level
func Info(logger *slog.Logger, msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs at warn level
func Warn(logger *slog.Logger, msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs at error level
func Error(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatal logs at fatal level and exits
func Fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}
