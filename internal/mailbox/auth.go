package mailbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/tidwall/gjson"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	"golang.org/x/oauth2"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	readonlyScope   = "https://www.googleapis.com/auth/gmail.readonly"
)

// ErrCredentials is returned when the OAuth client or token file is missing or unusable.
// Obtaining a token is out of scope: the token file must already exist.
var ErrCredentials = errors.New("gmail credentials unavailable")

// LoadClientConfig reads an OAuth client file as downloaded from the Google console,
// either an "installed" or a "web" application.
func LoadClientConfig(path string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read client file: %w", ErrCredentials, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: client file %s is not JSON", ErrCredentials, path)
	}

	app := gjson.GetBytes(raw, "installed")
	if !app.Exists() {
		app = gjson.GetBytes(raw, "web")
	}
	clientID := app.Get("client_id").String()
	if clientID == "" {
		return nil, fmt.Errorf("%w: client file %s has no client_id", ErrCredentials, path)
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: app.Get("client_secret").String(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  orDefault(app.Get("auth_uri").String(), defaultAuthURL),
			TokenURL: orDefault(app.Get("token_uri").String(), defaultTokenURL),
		},
		Scopes: []string{readonlyScope},
	}
	return cfg, nil
}

// LoadToken reads a previously authorized token. Both the oauth2 package's own layout
// ("access_token") and the layout written by Google's Python client ("token") are accepted.
func LoadToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read token file: %w", ErrCredentials, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: token file %s is not JSON", ErrCredentials, path)
	}

	fields := gjson.GetManyBytes(raw, "access_token", "token", "refresh_token", "token_type", "expiry")
	tok := &oauth2.Token{
		AccessToken:  orDefault(fields[0].String(), fields[1].String()),
		RefreshToken: fields[2].String(),
		TokenType:    fields[3].String(),
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s holds no token", ErrCredentials, path)
	}
	if s := fields[4].String(); s != "" {
		if at, perr := cachedtime.Parse(s); perr == nil {
			tok.Expiry = at
		}
	}
	return tok, nil
}

// AuthorizedClient returns an HTTP client that signs requests with the stored token
// and refreshes it in memory when it expires.
func AuthorizedClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	cfg, err := LoadClientConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, cfg.TokenSource(ctx, tok)), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
