package config

import "time"

const defaultSweepInterval = 10 * time.Minute

type LifetimeCfg struct {
	// SweepInterval is how often the long-lived cache drops entries past their expiry.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func (cfg *LifetimeCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *LifetimeCfg) adjust() {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
}
