// Package calsync fetches events from the user's external calendar. When no
// provider client id is configured it returns a fixed simulated set instead.
package calsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Defaults for Session fields left zero.
const (
	DefaultSimulatedLatency = 1500 * time.Millisecond
	DefaultPageSize         = 100
	DefaultRedirectPort     = 8085
	DefaultTokenFile        = "provider_token.json"
)

// Session holds the provider credentials and sync settings. It is built once
// at startup and passed by value.
type Session struct {
	ClientID         string
	ClientSecret     string
	APIKey           string
	TokenFile        string
	RedirectPort     int
	SimulatedLatency time.Duration
	PageSize         int64
	Location         *time.Location
}

// Real reports whether syncing talks to the provider.
func (s Session) Real() bool {
	return s.ClientID != ""
}

// WithDefaults fills zero fields.
func (s Session) WithDefaults() Session {
	if s.TokenFile == "" {
		s.TokenFile = DefaultTokenFile
	}
	if s.RedirectPort == 0 {
		s.RedirectPort = DefaultRedirectPort
	}
	if s.SimulatedLatency == 0 {
		s.SimulatedLatency = DefaultSimulatedLatency
	}
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	return s
}

// OAuthConfig returns the read-only calendar OAuth configuration.
func (s Session) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", s.RedirectPort),
		Scopes:       []string{calendar.CalendarEventsReadonlyScope},
	}
}

// ErrNoToken is returned when the real path has no stored authorization.
var ErrNoToken = errors.New("no provider token, run the login command first")

func (s Session) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", s.TokenFile, err)
	}
	return &tok, nil
}

func (s Session) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(s.TokenFile, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
