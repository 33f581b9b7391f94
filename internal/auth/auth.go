// Package auth exposes the current authentication session to the inference client.
// Providers only read an existing session; they never log in or out.
package auth

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// StaticTokenProvider returns a fixed token, typically from configuration.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for token. An empty token means "no session".
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: strings.TrimSpace(token)}
}

// AccessToken returns the configured token.
func (s *StaticTokenProvider) AccessToken(_ context.Context) (string, bool) {
	return s.token, s.token != ""
}

// Session is the on-disk shape of a stored auth session.
type Session struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is a unix timestamp in seconds; zero means no expiry.
	ExpiresAt int64 `json:"expires_at"`
}

// SessionFileProvider reads a session file on every call so that a token
// refreshed by another process is picked up immediately.
type SessionFileProvider struct {
	path string
	now  func() time.Time
}

// NewSessionFileProvider creates a provider reading the session stored at path.
func NewSessionFileProvider(path string) *SessionFileProvider {
	return &SessionFileProvider{path: path, now: time.Now}
}

// AccessToken returns the stored token when the file exists, parses and has not expired.
func (s *SessionFileProvider) AccessToken(ctx context.Context) (string, bool) {
	if err := ctx.Err(); err != nil {
		return "", false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		logger.Debug("No auth session available", "path", s.path, "error", err)
		return "", false
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		logger.Debug("Auth session file unreadable", "path", s.path, "error", err)
		return "", false
	}
	if session.AccessToken == "" {
		return "", false
	}
	if session.ExpiresAt > 0 && !s.now().Before(time.Unix(session.ExpiresAt, 0)) {
		logger.Debug("Auth session expired", "path", s.path)
		return "", false
	}
	return session.AccessToken, true
}

// New selects a provider: a session file when one is configured, otherwise the static token.
func New(accessToken, sessionFile string) mindtypes.TokenProvider {
	if sessionFile != "" {
		return NewSessionFileProvider(sessionFile)
	}
	return NewStaticTokenProvider(accessToken)
}
