// internal/utils/logger/pretty.go
package logger

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Цвета для вывода в терминал
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// PrettyEncoder is the console encoder for interactive use: short clock,
// colored level, no caller. Fields are still printed.
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     clockEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := ""
	switch level {
	case zapcore.DebugLevel:
		color = colorCyan
	case zapcore.InfoLevel:
		color = colorGreen
	case zapcore.WarnLevel:
		color = colorYellow
	case zapcore.ErrorLevel:
		color = colorRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = colorRed + colorBold
	}
	if color == "" {
		enc.AppendString("[" + level.CapitalString() + "]")
		return
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]" + colorReset)
}

func clockEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}
