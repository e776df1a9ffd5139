package config

import "time"

const (
	defaultCacheMaxSize = 30
	defaultCacheExpiry  = 24 * time.Hour
)

type CacheCfg struct {
	// MaxSize is the maximum number of entries kept (the metadata record is not counted).
	// When a write pushes the count above MaxSize, the least recently accessed entries are evicted.
	// Example: 30.
	MaxSize int `yaml:"max_size"`

	// Expiry is the age after which an entry is dropped when the cache is loaded.
	// Age is measured from creation, not from the last access.
	// Example: "24h".
	Expiry time.Duration `yaml:"expiry"`
}

func (cfg *CacheCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *CacheCfg) adjust() {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultCacheMaxSize
	}
	if cfg.Expiry == 0 {
		cfg.Expiry = defaultCacheExpiry
	}
}
