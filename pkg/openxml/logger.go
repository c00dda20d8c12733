package openxml

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel is the minimum severity a Logger emits.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogOff
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// slogLevelOff sits above every level the package emits.
const slogLevelOff = slog.LevelError + 4

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogInfo:
		return slog.LevelInfo
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slogLevelOff
	}
}

// Fields are key-value pairs attached to every record of a derived Logger.
type Fields map[string]any

// Logger is a leveled logger writing slog text records. Loggers derived
// with WithField share their parent's level.
type Logger struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

var (
	globalLogger     *Logger
	globalLoggerMu   sync.RWMutex
	globalLoggerOnce sync.Once
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		globalLoggerMu.Lock()
		defer globalLoggerMu.Unlock()
		if globalLogger == nil {
			globalLogger = NewLogger(os.Stderr, ParseLogLevel(DefaultConfig().LogLevel))
		}
	})
}

// ParseLogLevel maps debug, info, warn, error and off to a level. Anything
// else is info.
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LogDebug
	case "info":
		return LogInfo
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	case "off":
		return LogOff
	default:
		return LogInfo
	}
}

// NewLogger returns a Logger writing text records to w. A nil w discards
// them.
func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	lv := new(slog.LevelVar)
	lv.Set(level.slogLevel())
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	return &Logger{level: lv, logger: slog.New(handler)}
}

// SetLevel changes the level of l and every Logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Set(level.slogLevel())
}

// Level returns the current level.
func (l *Logger) Level() LogLevel {
	switch lv := l.level.Level(); {
	case lv >= slogLevelOff:
		return LogOff
	case lv >= slog.LevelError:
		return LogError
	case lv >= slog.LevelWarn:
		return LogWarn
	case lv >= slog.LevelInfo:
		return LogInfo
	default:
		return LogDebug
	}
}

// IsDebugMode reports whether debug records are emitted.
func (l *Logger) IsDebugMode() bool {
	return l.Level() == LogDebug
}

// Slog returns the underlying structured logger, for the core packages'
// Options.Logger fields.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// WithField returns a Logger that adds key=value to each record.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{level: l.level, logger: l.logger.With(key, value)}
}

// WithFields is WithField for several pairs.
func (l *Logger) WithFields(fields Fields) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{level: l.level, logger: l.logger.With(args...)}
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	ctx := context.Background()
	lv := level.slogLevel()
	if !l.logger.Enabled(ctx, lv) {
		return
	}
	l.logger.Log(ctx, lv, fmt.Sprintf(format, args...))
}

// Debug logs a formatted message at debug level.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogDebug, format, args...)
}

// Info logs a formatted message at info level.
func (l *Logger) Info(format string, args ...any) {
	l.log(LogInfo, format, args...)
}

// Warn logs a formatted message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LogWarn, format, args...)
}

// Error logs a formatted message at error level.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogError, format, args...)
}

// SetLogger replaces the global logger.
func SetLogger(logger *Logger) {
	initGlobalLogger()
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = logger
}

// GetLogger returns the global logger, creating it at info level on first
// use.
func GetLogger() *Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// Debug logs through the global logger.
func Debug(format string, args ...any) {
	GetLogger().Debug(format, args...)
}

// Info logs through the global logger.
func Info(format string, args ...any) {
	GetLogger().Info(format, args...)
}

// Warn logs through the global logger.
func Warn(format string, args ...any) {
	GetLogger().Warn(format, args...)
}

// Error logs through the global logger.
func Error(format string, args ...any) {
	GetLogger().Error(format, args...)
}

// WithField derives from the global logger.
func WithField(key string, value any) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields derives from the global logger.
func WithFields(fields Fields) *Logger {
	return GetLogger().WithFields(fields)
}

// UpdateLoggerFromConfig applies the configured level to the global
// logger.
func UpdateLoggerFromConfig(cfg *Config) {
	GetLogger().SetLevel(ParseLogLevel(cfg.LogLevel))
}
