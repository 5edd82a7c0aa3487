package logger

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv 日志级别环境变量
const LevelEnv = "NEWSFEED_LOGGER_LEVEL"

const serviceName = "newsfeed"

// Logger 进程级默认 logger，各组件通过 Named 派生
var Logger = build(os.Getenv(LevelEnv))

func build(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": serviceName}

	l, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// ParseLevel maps a textual level onto zap, defaulting to warn.
func ParseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zap.WarnLevel
	}
	return level
}

// Named returns a child of the global logger, used as the default for services.
func Named(name string) *zap.Logger {
	return Logger.Named(name)
}

// OrDefault returns l, or a named global logger when l is nil.
func OrDefault(l *zap.Logger, name string) *zap.Logger {
	if l != nil {
		return l
	}
	return Named(name)
}

func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Logger.Fatal(msg, fields...) }

// Sync 刷盘；终端输出时 stderr 不支持 fsync，忽略这类错误
func Sync() {
	err := Logger.Sync()
	if err == nil || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) {
		return
	}
	Logger.Error("logger sync failed", zap.Error(err))
}
