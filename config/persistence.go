package config

const (
	defaultCacheFile  = "email_cache.json"
	defaultDigestFile = "digest_data.json"
	defaultLockFile   = "script.lock"
)

type PersistenceCfg struct {
	// CacheFile is the path of the durable cache file.
	// The parent directory is created on first save.
	CacheFile string `yaml:"cache_file"`

	// Gzip enables gzip compression for the cache file.
	// When enabled, the file is written and read in compressed form,
	// reducing disk usage at the cost of the file no longer being readable as plain JSON.
	Gzip bool `yaml:"gzip"`

	// DigestFile is where the latest digest document is written for the dashboard.
	DigestFile string `yaml:"digest_file"`

	// LockFile marks a run in progress. Its presence prevents a second run from starting.
	LockFile string `yaml:"lock_file"`
}

func (cfg *PersistenceCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *PersistenceCfg) adjust() {
	if cfg.CacheFile == "" {
		cfg.CacheFile = defaultCacheFile
	}
	if cfg.DigestFile == "" {
		cfg.DigestFile = defaultDigestFile
	}
	if cfg.LockFile == "" {
		cfg.LockFile = defaultLockFile
	}
}
