package auth

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"ytauto/internal/storage"
)

// expired is an expiry in the past; tokens carrying it refresh on first use.
var expired = time.Unix(1, 0)

// CalendarCredentials is an installed-app client secrets file downloaded
// from the Google Cloud console. The token lives next to it in
// "<path>.refresh".
type CalendarCredentials struct {
	Path   string
	config *oauth2.Config
}

// LoadCalendar reads the client secrets file at path.
func LoadCalendar(path string) (*CalendarCredentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrCredentialsNotFound
		}
		return nil, &CredentialError{Op: "load", Path: path, Err: err}
	}

	cfg, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, &CredentialError{Op: "load", Path: path, Err: err}
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	return &CalendarCredentials{Path: path, config: cfg}, nil
}

// Config returns the OAuth client from the secrets file.
func (c *CalendarCredentials) Config() *oauth2.Config { return c.config }

// TokenPath is where the calendar token is stored.
func (c *CalendarCredentials) TokenPath() string { return c.Path + ".refresh" }

// tokenFile also accepts the field names of authorized-user files written by
// Google's Python client ("token", string expiry).
type tokenFile struct {
	AccessToken  string `json:"access_token,omitempty"`
	Token        string `json:"token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
}

// LoadToken reads the stored token. It returns ErrCredentialsNotFound when
// no token has been stored yet.
func (c *CalendarCredentials) LoadToken() (*oauth2.Token, error) {
	path := c.TokenPath()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrCredentialsNotFound
		}
		return nil, &CredentialError{Op: "load token", Path: path, Err: err}
	}

	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return nil, &CredentialError{Op: "load token", Path: path, Err: err}
	}

	tok := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		TokenType:    tf.TokenType,
		RefreshToken: tf.RefreshToken,
		Expiry:       expired,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = tf.Token
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if t, err := time.Parse(time.RFC3339Nano, tf.Expiry); err == nil {
		tok.Expiry = t
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, &CredentialError{Op: "load token", Path: path, Err: ErrIncomplete}
	}
	return tok, nil
}

// SaveToken writes tok to TokenPath, readable only by the owner.
func (c *CalendarCredentials) SaveToken(tok *oauth2.Token) error {
	tf := tokenFile{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		tf.Expiry = tok.Expiry.UTC().Format(time.RFC3339Nano)
	}

	path := c.TokenPath()
	err := storage.WriteFile(path, 0600, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tf)
	})
	if err != nil {
		return &CredentialError{Op: "save token", Path: path, Err: err}
	}
	return nil
}
