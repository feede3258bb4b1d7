// internal/utils/logger/config.go
package logger

import "io"

// Rotation задаёт ротацию файла логов (lumberjack).
type Rotation struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

type Config struct {
	// LogFile пустой отключает JSON-файл.
	LogFile  string
	Rotation Rotation
	// Development включает debug-уровень и stacktrace с warn.
	Development bool
	Pretty      bool
	// Console получает человекочитаемый вывод; nil означает os.Stderr.
	Console          io.Writer
	DisableRedaction bool
}

func DefaultConfig() *Config {
	return &Config{
		LogFile: "logs/vibes.log",
		Rotation: Rotation{
			MaxSizeMB:  50,
			MaxAgeDays: 14,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}
