package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Session owns the authenticated clients of one run. Create it at start-up
// with NewSession and Close it before exiting so refreshed tokens are
// written back.
type Session struct {
	// Base carries the requests of every client, including token refreshes.
	Base *http.Client
	// In and Out are used by the consent prompt.
	In  io.Reader
	Out io.Writer
	// YouTubeEndpoint replaces Google's OAuth endpoint for the YouTube
	// client when set.
	YouTubeEndpoint oauth2.Endpoint
	Logger          *slog.Logger

	mu      sync.Mutex
	sources []*savingSource
}

// NewSession creates a session. base may be nil for http.DefaultClient.
func NewSession(base *http.Client, in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Base:   base,
		In:     in,
		Out:    out,
		Logger: logger.With("component", "auth"),
	}
}

func (s *Session) context(ctx context.Context) context.Context {
	if s.Base == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.Base)
}

// YouTube returns an authorized client for the credentials in the dotenv
// file at path. Without a refresh token the consent flow runs first.
func (s *Session) YouTube(ctx context.Context, path string) (*http.Client, error) {
	creds, err := LoadYouTube(path)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("authenticating", "client", "youtube", "client_id", creds.ClientID)

	ctx = s.context(ctx)
	cfg := creds.Config(s.YouTubeEndpoint)
	tok := creds.Token()
	if tok == nil {
		s.Logger.Info("youtube token not found, requesting authorisation")
		if tok, err = Authorize(ctx, cfg, s.In, s.Out); err != nil {
			return nil, err
		}
	}
	return s.client(ctx, "youtube", cfg, tok, creds.Save)
}

// Calendar returns an authorized client for the client secrets at path. The
// consent flow runs when no token is stored, or always when force is set.
func (s *Session) Calendar(ctx context.Context, path string, force bool) (*http.Client, error) {
	creds, err := LoadCalendar(path)
	if err != nil {
		return nil, err
	}

	ctx = s.context(ctx)
	var tok *oauth2.Token
	if !force {
		tok, err = creds.LoadToken()
		if err != nil {
			if !errors.Is(err, ErrCredentialsNotFound) {
				s.Logger.Warn("could not load calendar token", "error", err)
			}
			tok = nil
		}
	}
	if tok == nil {
		s.Logger.Info("requesting calendar authorisation", "forced", force)
		if tok, err = Authorize(ctx, creds.Config(), s.In, s.Out); err != nil {
			return nil, err
		}
	}
	return s.client(ctx, "calendar", creds.Config(), tok, creds.SaveToken)
}

// Reauth forces the consent flow for the calendar client at path and
// stores the new token.
func (s *Session) Reauth(ctx context.Context, path string) error {
	_, err := s.Calendar(ctx, path, true)
	return err
}

// client refreshes tok right away so bad credentials fail at start-up, saves
// the result and returns a client whose later refreshes are saved on Close.
func (s *Session) client(ctx context.Context, name string, cfg *oauth2.Config, tok *oauth2.Token, save func(*oauth2.Token) error) (*http.Client, error) {
	src := &savingSource{name: name, base: cfg.TokenSource(ctx, tok), save: save}
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: refresh %s token: %w", name, err)
	}
	if err := save(fresh); err != nil {
		return nil, err
	}
	src.saved = fresh.AccessToken
	s.Logger.Debug("loaded access token", "client", name, "expires", fresh.Expiry)

	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return oauth2.NewClient(ctx, src), nil
}

// Close writes back tokens refreshed since they were last saved.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, src := range s.sources {
		if err := src.flush(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.Logger.Debug("saved token", "client", src.name)
	}
	s.sources = nil
	return errors.Join(errs...)
}

// savingSource remembers the latest token so it can be saved later.
type savingSource struct {
	name string
	base oauth2.TokenSource
	save func(*oauth2.Token) error

	mu     sync.Mutex
	latest *oauth2.Token
	saved  string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.latest = tok
	s.mu.Unlock()
	return tok, nil
}

func (s *savingSource) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.latest.AccessToken == s.saved {
		return nil
	}
	if err := s.save(s.latest); err != nil {
		return err
	}
	s.saved = s.latest.AccessToken
	return nil
}
