package config

type MetricsCfg struct {
	// DBPath is the SQLite database the recorder appends to.
	DBPath string `yaml:"db_path"`
}

func (cfg *MetricsCfg) Enabled() bool {
	return cfg != nil && cfg.DBPath != ""
}
