package app

import (
	"io"
	"log/slog"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

// SetupLogger 设置默认 slog：调试模式输出文本，其余输出 JSON
func SetupLogger(cfg *config.Config, w io.Writer) {
	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.App.Debug {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h).With("app", cfg.App.Name))
}
