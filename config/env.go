package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides holds raw env values that take precedence over the YAML file.
type envOverrides struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	CacheFile    string `env:"EMAIL_ASSISTANT_CACHE_FILE"`
	LogLevel     string `env:"EMAIL_ASSISTANT_LOG_LEVEL"`
}

// ApplyEnv overlays environment variables onto cfg.
func (cfg *Assistant) ApplyEnv() error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	key := raw.GeminiAPIKey
	if key == "" {
		key = raw.GoogleAPIKey
	}
	if key != "" {
		if cfg.Gemini == nil {
			cfg.Gemini = &GeminiCfg{}
		}
		cfg.Gemini.APIKey = key
	}

	if raw.CacheFile != "" {
		if cfg.Persistence == nil {
			cfg.Persistence = &PersistenceCfg{}
		}
		cfg.Persistence.CacheFile = raw.CacheFile
	}

	if raw.LogLevel != "" {
		if cfg.Logs == nil {
			cfg.Logs = &LogsCfg{}
		}
		cfg.Logs.Level = raw.LogLevel
	}
	return nil
}
