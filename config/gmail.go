package config

const (
	defaultGmailQuery      = "is:unread newer_than:1d"
	defaultGmailMaxResults = 10
	defaultGmailBaseURL    = "https://gmail.googleapis.com"
	defaultCredentialsFile = "credentials.json"
	defaultTokenFile       = "token.json"
)

type GmailCfg struct {
	// Query is a Gmail search expression. The fetch cursor is appended as an "after:" clause.
	Query string `yaml:"query"`

	// MaxResults caps how many items one fetch returns.
	MaxResults int `yaml:"max_results"`

	// CredentialsFile holds the OAuth client id and secret ("installed" or "web" application).
	CredentialsFile string `yaml:"credentials_file"`

	// TokenFile holds a previously authorized OAuth token. It is refreshed in memory, never re-authorized.
	TokenFile string `yaml:"token_file"`

	// BaseURL is the API root, overridable for tests.
	BaseURL string `yaml:"base_url"`
}

func (cfg *GmailCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *GmailCfg) adjust() {
	if cfg.Query == "" {
		cfg.Query = defaultGmailQuery
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = defaultGmailMaxResults
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = defaultCredentialsFile
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGmailBaseURL
	}
}
