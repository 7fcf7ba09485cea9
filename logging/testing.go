package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a new logger that outputs Debug+ logs through `tb.Log`, so that lines are
// associated with the test that produced them.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	testCore := zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Core()
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	return newImpl("", NewAtomicLevelAt(DEBUG), testCore, observerCore), observedLogs
}
