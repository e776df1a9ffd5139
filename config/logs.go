package config

import (
	"log/slog"
	"strings"
)

type LogsCfg struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Service and Env are attached to every log line.
	Service string `yaml:"service"`
	Env     string `yaml:"env"`
}

func (cfg *LogsCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *LogsCfg) adjust() {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Service == "" {
		cfg.Service = "emailAssistant"
	}
	if cfg.Env == "" {
		cfg.Env = "local"
	}
}

// SlogLevel maps Level onto slog, defaulting to info.
func (cfg *LogsCfg) SlogLevel() slog.Level {
	switch strings.ToLower(cfg.Level) {
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
