package config

const (
	defaultMaxMembers   = 10
	defaultMaxPoints    = 5
	defaultBodyMaxChars = 3000
)

type DigestCfg struct {
	// MaxMembers caps how many bucket members are shown to the model in one aggregate prompt.
	MaxMembers int `yaml:"max_members"`

	// MaxPoints caps the bullets of an aggregate summary.
	MaxPoints int `yaml:"max_points"`

	// BodyMaxChars truncates newsletter bodies before summarization.
	BodyMaxChars int `yaml:"body_max_chars"`

	// CoarseInvalidation regenerates every bucket summary whenever any new item arrived,
	// instead of only the buckets the new items landed in.
	CoarseInvalidation bool `yaml:"coarse_invalidation"`
}

func (cfg *DigestCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *DigestCfg) adjust() {
	if cfg.MaxMembers == 0 {
		cfg.MaxMembers = defaultMaxMembers
	}
	if cfg.MaxPoints == 0 {
		cfg.MaxPoints = defaultMaxPoints
	}
	if cfg.BodyMaxChars == 0 {
		cfg.BodyMaxChars = defaultBodyMaxChars
	}
}
