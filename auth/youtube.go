package auth

import (
	"errors"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"ytauto/internal/storage"
)

// YouTubeCredentials is the dotenv file holding the YouTube client and its
// tokens:
//
//	client_id=...
//	client_secret=...
//	access_token=...
//	refresh_token=...
type YouTubeCredentials struct {
	Path         string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// LoadYouTube reads the dotenv credential file at path.
func LoadYouTube(path string) (*YouTubeCredentials, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrCredentialsNotFound
		}
		return nil, &CredentialError{Op: "load", Path: path, Err: err}
	}

	c := &YouTubeCredentials{
		Path:         path,
		ClientID:     env["client_id"],
		ClientSecret: env["client_secret"],
		AccessToken:  env["access_token"],
		RefreshToken: env["refresh_token"],
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, &CredentialError{Op: "load", Path: path, Err: ErrIncomplete}
	}
	return c, nil
}

// Config returns the OAuth client for the credentials.
func (c *YouTubeCredentials) Config(endpoint oauth2.Endpoint) *oauth2.Config {
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  DefaultRedirectURL,
		Scopes:       []string{youtube.YoutubeScope},
	}
}

// Token returns the stored token, or nil when there is nothing to refresh
// from. The access token is marked expired so it is refreshed before use.
func (c *YouTubeCredentials) Token() *oauth2.Token {
	if c.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expired,
	}
}

// Save stores tok in the credential file. A token without a refresh token
// keeps the one already stored.
func (c *YouTubeCredentials) Save(tok *oauth2.Token) error {
	c.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}

	content, err := godotenv.Marshal(map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
	})
	if err != nil {
		return &CredentialError{Op: "save", Path: c.Path, Err: err}
	}

	err = storage.WriteFile(c.Path, 0600, func(w io.Writer) error {
		_, err := io.WriteString(w, content+"\n")
		return err
	})
	if err != nil {
		return &CredentialError{Op: "save", Path: c.Path, Err: err}
	}
	return nil
}
