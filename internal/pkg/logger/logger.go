package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Encoding  string `envconfig:"ENCODING" default:"console"` // json | console
	Level     string `envconfig:"LEVEL" default:"info"`
	AddSource bool   `envconfig:"ADD_SOURCE" default:"false"`
}

// New slog-логгер с атрибутом app; неизвестные encoding/level заменяются на console/info
func New(app string, cfg *Config) *slog.Logger {
	return NewWithWriter(app, cfg, os.Stdout)
}

// NewWithWriter то же, но с явным writer (тесты)
func NewWithWriter(app string, cfg *Config, w io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Encoding) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("app", app)
}

// ParseLevel парсит строковый уровень в slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard логгер без вывода для тестов
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
