package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

var (
	// ErrNotConfigured reports a configuration that cannot start a run.
	ErrNotConfigured = errors.New("assistant is not configured")
	ErrMissingAPIKey = errors.New("model API key is not set")
)

// Assistant groups configuration of every component.
// Optional components are disabled by leaving their section nil;
// required sections are filled with defaults by AdjustConfig.
type Assistant struct {
	// Cache configures the durable key-value cache (size bound and expiry).
	Cache *CacheCfg `yaml:"cache"`

	// Persistence configures where the cache, the digest and the run lock live on disk.
	Persistence *PersistenceCfg `yaml:"persistence"`

	// Gemini configures the text generation provider.
	Gemini *GeminiCfg `yaml:"gemini"`

	// Gmail configures the mailbox the items are fetched from.
	Gmail *GmailCfg `yaml:"gmail"`

	// Digest configures the summarization stage.
	Digest *DigestCfg `yaml:"digest"`

	// Throttle configures spacing between model calls.
	Throttle *ThrottleCfg `yaml:"throttle"`

	// Server configures the local dashboard server. If nil, serve mode is unavailable.
	Server *ServerCfg `yaml:"server"`

	// Schedule configures a daily run in serve mode. If nil, runs are only triggered manually.
	Schedule *ScheduleCfg `yaml:"schedule"`

	// Metrics configures the SQLite metrics recorder. If nil, metrics stay in memory.
	Metrics *MetricsCfg `yaml:"metrics"`

	// Lifetime configures the periodic expiry sweep of the server's long-lived cache.
	// If nil, expired entries are only dropped when a cache is loaded.
	Lifetime *LifetimeCfg `yaml:"lifetime"`

	// Logs configures the process logger.
	Logs *LogsCfg `yaml:"logs"`
}

// Default returns a configuration with every required section at its default value.
func Default() *Assistant {
	cfg := &Assistant{}
	cfg.AdjustConfig()
	return cfg
}

// AdjustConfig fills required sections and zero fields with defaults.
func (cfg *Assistant) AdjustConfig() {
	if cfg.Cache == nil {
		cfg.Cache = &CacheCfg{}
	}
	cfg.Cache.adjust()

	if cfg.Persistence == nil {
		cfg.Persistence = &PersistenceCfg{}
	}
	cfg.Persistence.adjust()

	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiCfg{}
	}
	cfg.Gemini.adjust()

	if cfg.Gmail == nil {
		cfg.Gmail = &GmailCfg{}
	}
	cfg.Gmail.adjust()

	if cfg.Digest == nil {
		cfg.Digest = &DigestCfg{}
	}
	cfg.Digest.adjust()

	if cfg.Throttle == nil {
		cfg.Throttle = &ThrottleCfg{}
	}
	cfg.Throttle.adjust()

	if cfg.Logs == nil {
		cfg.Logs = &LogsCfg{}
	}
	cfg.Logs.adjust()

	if cfg.Server.Enabled() {
		cfg.Server.adjust()
	}
	if cfg.Schedule.Enabled() {
		cfg.Schedule.adjust()
	}
	if cfg.Lifetime.Enabled() {
		cfg.Lifetime.adjust()
	}
}

// Validate reports configuration that makes a run impossible. The returned error wraps ErrNotConfigured.
func (cfg *Assistant) Validate() error {
	var errs []error
	if cfg.Gemini.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if cfg.Cache.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("cache.max_size must be positive, got %d", cfg.Cache.MaxSize))
	}
	if cfg.Cache.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("cache.expiry must be positive, got %s", cfg.Cache.Expiry))
	}
	if cfg.Gmail.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("gmail.max_results must be positive, got %d", cfg.Gmail.MaxResults))
	}
	if cfg.Schedule.Enabled() {
		if _, _, err := cfg.Schedule.Clock(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotConfigured, errors.Join(errs...))
	}
	return nil
}

// LoadConfig reads a YAML file, applies environment overrides and defaults.
func LoadConfig(path string) (*Assistant, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	cfg := &Assistant{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if err = cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.AdjustConfig()

	return cfg, nil
}
