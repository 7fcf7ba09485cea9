package logging

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	cores []zapcore.Core
	sugar *zap.SugaredLogger
}

func newImpl(name string, level AtomicLevel, cores ...zapcore.Core) *impl {
	// Skip the impl method frame so callers report their own file:line.
	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	if name != "" {
		zl = zl.Named(name)
	}
	return &impl{
		name:  name,
		level: level,
		cores: cores,
		sugar: zl.Sugar(),
	}
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return newImpl(newName, NewAtomicLevelAt(imp.level.Get()), imp.cores...)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Desugar() *zap.Logger {
	return imp.sugar.Desugar()
}

func (imp *impl) Sync() error {
	var errs []error
	for _, core := range imp.cores {
		if err := core.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (imp *impl) shouldLog(logLevel Level) bool {
	return logLevel >= imp.level.Get()
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.sugar.Debug(args...)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.sugar.Debugf(template, args...)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.sugar.Debugw(msg, keysAndValues...)
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.sugar.Info(args...)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.sugar.Infof(template, args...)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.sugar.Infow(msg, keysAndValues...)
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.sugar.Warn(args...)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.sugar.Warnf(template, args...)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.sugar.Warnw(msg, keysAndValues...)
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.sugar.Error(args...)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.sugar.Errorf(template, args...)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.sugar.Errorw(msg, keysAndValues...)
	}
}
