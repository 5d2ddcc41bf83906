package backends

import (
	"errors"
	"os"

	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the cached Bitwarden session.
const (
	SessionService = "shipkey"
	SessionAccount = "bw-session"
	SessionEnv     = "BW_SESSION"
)

// SessionFunc returns a Bitwarden session token, or "" when none is known.
type SessionFunc func() string

// DefaultSession prefers BW_SESSION and falls back to the OS keyring.
func DefaultSession() string {
	if s := os.Getenv(SessionEnv); s != "" {
		return s
	}
	s, err := LoadSession()
	if err != nil {
		return ""
	}
	return s
}

// LoadSession reads the cached session from the OS keyring. A missing entry
// is reported as "" with no error.
func LoadSession() (string, error) {
	s, err := keyring.Get(SessionService, SessionAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return s, nil
}

// SaveSession caches token in the OS keyring.
func SaveSession(token string) error {
	return keyring.Set(SessionService, SessionAccount, token)
}

// ClearSession removes the cached session. Clearing an absent entry is not
// an error.
func ClearSession() error {
	err := keyring.Delete(SessionService, SessionAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// StaticSession returns a SessionFunc yielding token.
func StaticSession(token string) SessionFunc {
	return func() string { return token }
}
