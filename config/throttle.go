package config

const defaultRequestsPerMinute = 30

type ThrottleCfg struct {
	// RequestsPerMinute bounds model calls; calls are spaced evenly (30 -> one call every 2s).
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

func (cfg *ThrottleCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *ThrottleCfg) adjust() {
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
}
