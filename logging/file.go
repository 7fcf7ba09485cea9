package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of log files written by NewFileCore.
const (
	logFileMaxSizeMB  = 64
	logFileMaxBackups = 3
)

// NewFileCore returns a core writing JSON encoded entries to path. The file is rotated once it
// reaches logFileMaxSizeMB, keeping logFileMaxBackups compressed backups.
func NewFileCore(path string) zapcore.Core {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		Compress:   true,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		zapcore.AddSync(writer),
		zapcore.DebugLevel,
	)
}

// NewLoggerWithFile returns a logger at level writing to stdout and to the rotating file at path.
func NewLoggerWithFile(name string, level Level, path string) Logger {
	return NewLoggerWithCores(name, level, NewStdoutCore(), NewFileCore(path))
}
