package config

import "time"

const (
	defaultServerAddr        = "127.0.0.1:8001"
	defaultTelemetryInterval = time.Minute
)

type ServerCfg struct {
	// Addr is the listen address of the dashboard server.
	Addr string `yaml:"addr"`

	// TelemetryInterval is how often cache statistics are logged while serving.
	// A negative value disables the periodic log.
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
}

func (cfg *ServerCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *ServerCfg) adjust() {
	if cfg.Addr == "" {
		cfg.Addr = defaultServerAddr
	}
	if cfg.TelemetryInterval == 0 {
		cfg.TelemetryInterval = defaultTelemetryInterval
	}
}
