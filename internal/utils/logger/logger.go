// internal/utils/logger/logger.go
package logger

import (
	"errors"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zap logger that owns its rotating log file.
type Logger struct {
	*zap.Logger
	rotator *lumberjack.Logger
}

// New builds a console core and, when LogFile is set, a rotating JSON core.
// Both pass through the redacting core unless DisableRedaction is set.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	stackLevel := zapcore.ErrorLevel
	if cfg.Development {
		level.SetLevel(zapcore.DebugLevel)
		stackLevel = zapcore.WarnLevel
	}

	cores := []zapcore.Core{consoleCore(cfg, level)}
	var rotator *lumberjack.Logger
	if cfg.LogFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxAge:     cfg.Rotation.MaxAgeDays,
			MaxBackups: cfg.Rotation.MaxBackups,
			Compress:   cfg.Rotation.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	if !cfg.DisableRedaction {
		core = NewRedactingCore(core)
	}
	return &Logger{
		Logger:  zap.New(core, zap.AddCaller(), zap.AddStacktrace(stackLevel)),
		rotator: rotator,
	}, nil
}

func consoleCore(cfg *Config, level zapcore.LevelEnabler) zapcore.Core {
	out := cfg.Console
	if out == nil {
		out = os.Stderr
	}
	enc := PrettyEncoder()
	if !cfg.Pretty {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewCore(enc, zapcore.AddSync(out), level)
}

// fileEncoderConfig keeps stable keys for log shippers.
func fileEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return ec
}

// ForOperation scopes l to one user operation.
func ForOperation(l *zap.Logger, operationID, method string) *zap.Logger {
	return l.With(zap.String("operation_id", operationID), zap.String("method", method))
}

// Sync flushes buffers. Terminals reject fsync; that is not an error.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// Close синхронизирует и закрывает файл ротации.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}
