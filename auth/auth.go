// Package auth loads and stores the OAuth credentials for the YouTube and
// Calendar APIs and runs the interactive consent flow when no usable token
// exists.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Sentinel errors for credential handling.
var (
	// ErrCredentialsNotFound indicates the credential file does not exist.
	ErrCredentialsNotFound = errors.New("auth: credentials file not found")
	// ErrIncomplete indicates the credential file lacks the client id or secret.
	ErrIncomplete = errors.New("auth: client id and secret are required")
	// ErrNoCode indicates the consent prompt got no authorization code.
	ErrNoCode = errors.New("auth: no authorization code given")
	// ErrStateMismatch indicates the pasted redirect URL belongs to another
	// consent request.
	ErrStateMismatch = errors.New("auth: redirect state does not match")
)

// CredentialError wraps credential file errors with the file involved.
type CredentialError struct {
	Op   string
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("auth: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// DefaultRedirectURL is where Google sends the browser after consent. The
// page does not need to load; the user copies the URL from the address bar.
const DefaultRedirectURL = "https://localhost/"

// Authorize runs the consent flow for cfg: it prints the consent URL to out,
// reads the redirected URL (or the bare code) from in and exchanges it for a
// token. ctx may carry an oauth2.HTTPClient.
func Authorize(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	state := uuid.NewString()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Visit %s to authorise this application.\nInsert the redirect URL here:\n> ", authURL)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read authorization response: %w", err)
	}

	code, err := parseCode(strings.TrimSpace(line), state)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// parseCode accepts either a redirect URL carrying code and state query
// parameters or the code itself.
func parseCode(input, state string) (string, error) {
	if input == "" {
		return "", ErrNoCode
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	q := u.Query()
	if got := q.Get("state"); got != "" && got != state {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", ErrNoCode
	}
	return code, nil
}
