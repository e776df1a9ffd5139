package config

import "time"

const (
	defaultGeminiModel   = "gemini-2.5-flash-lite"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiTimeout = 60 * time.Second
)

type GeminiCfg struct {
	// Model is the generateContent model name.
	Model string `yaml:"model"`

	// BaseURL is the API root, overridable for tests and proxies.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. Usually supplied through GEMINI_API_KEY or GOOGLE_API_KEY
	// rather than the config file.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a single generation request.
	Timeout time.Duration `yaml:"timeout"`
}

func (cfg *GeminiCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *GeminiCfg) adjust() {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultGeminiTimeout
	}
}
