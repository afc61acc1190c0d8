package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a unified logging interface for the service.
// Before Init is called a development logger is used, so packages can log from tests.

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	sugar   = newDefault()
	current = LevelInfo
)

func newDefault() *zap.SugaredLogger {
	l, err := zapConfig(LevelDebug, "console").Build(zap.AddCallerSkip(2))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// zapConfig never attaches stack traces; request failures log one line.
func zapConfig(level LogLevel, format string) zap.Config {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.DisableStacktrace = true
	return cfg
}

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel. Unknown values map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init replaces the process logger. format is "json" (production encoder) or "console".
func Init(level LogLevel, format string) error {
	l, err := zapConfig(level, format).Build(zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}
	mu.Lock()
	sugar = l.Sugar()
	current = level
	mu.Unlock()
	return nil
}

// Disable routes all output to a no-op logger (useful for tests)
func Disable() {
	mu.Lock()
	sugar = zap.NewNop().Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	_ = s.Sync()
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	mu.Lock()
	current = level
	mu.Unlock()
}

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

func logf(level LogLevel, format string, args ...interface{}) {
	mu.RLock()
	s, minLevel := sugar, current
	mu.RUnlock()
	if level < minLevel {
		return
	}
	switch level {
	case LevelDebug:
		s.Debugf(format, args...)
	case LevelInfo:
		s.Infof(format, args...)
	case LevelWarn:
		s.Warnf(format, args...)
	default:
		s.Errorf(format, args...)
	}
}

// ContextLogger prefixes every message with a fixed set of fields.
type ContextLogger struct {
	prefix string
}

// WithContext creates a new logger with context
func WithContext(fields map[string]interface{}) *ContextLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v ", k, fields[k])
	}
	return &ContextLogger{prefix: b.String()}
}

// Prefix returns the rendered field prefix.
func (c *ContextLogger) Prefix() string { return c.prefix }

func (c *ContextLogger) Debugf(format string, args ...interface{}) {
	Debugf(c.escapedPrefix()+format, args...)
}

// Infof logs with context
func (c *ContextLogger) Infof(format string, args ...interface{}) {
	Infof(c.escapedPrefix()+format, args...)
}

// Warnf logs with context
func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	Warnf(c.escapedPrefix()+format, args...)
}

// Errorf logs with context
func (c *ContextLogger) Errorf(format string, args ...interface{}) {
	Errorf(c.escapedPrefix()+format, args...)
}

func (c *ContextLogger) escapedPrefix() string {
	return strings.ReplaceAll(c.prefix, "%", "%%")
}
