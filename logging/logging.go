// Package logging provides the structured logger used by the fitting tools.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger("surfacefit")
)

// Logger is the logging interface shared by every package. It mirrors the sugared zap API.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" that shares outputs with its parent.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	Desugar() *zap.Logger
	Sync() error
}

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewEncoderConfig returns the console encoder config used for human readable output.
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewStdoutCore returns a core writing console encoded entries to stdout.
func NewStdoutCore() zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(NewEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zapcore.DebugLevel,
	)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return newImpl(name, NewAtomicLevelAt(INFO), NewStdoutCore())
}

// NewLoggerWithCores returns a logger at the given level writing to all of the given cores.
func NewLoggerWithCores(name string, level Level, cores ...zapcore.Core) Logger {
	return newImpl(name, NewAtomicLevelAt(level), cores...)
}
