package errors_test

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Try: Check network connectivity")
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("inner failure")
	err := errors.UserError{Err: inner}

	assert.Equal(t, "inner failure", err.Error())
	assert.True(t, stderrors.Is(err, inner))
}

func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "backend",
		Value:      "lastpass",
		Message:    "unknown backend",
		Suggestion: "Use onepassword or bitwarden",
	}

	errMsg := err.Error()
	assert.Contains(t, errMsg, "field 'backend'")
	assert.Contains(t, errMsg, "value: lastpass")
	assert.Contains(t, errMsg, "unknown backend")
	assert.Contains(t, errMsg, "Use onepassword or bitwarden")
}

func TestCommandErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.CommandError{
		Command:    "gh secret set",
		ExitCode:   1,
		Message:    "HTTP 404",
		Suggestion: "Check the repository name",
	}

	errMsg := err.Error()
	assert.Contains(t, errMsg, "Command 'gh secret set' failed")
	assert.Contains(t, errMsg, "exit code: 1")
	assert.Contains(t, errMsg, "HTTP 404")
}

func TestNewCommandError(t *testing.T) {
	t.Parallel()

	cause := &exec.ExitError{}
	tests := []struct {
		name     string
		stderr   string
		err      error
		wantMsg  string
		wantCode int
	}{
		{"stderr wins", "  HTTP 404\n", fmt.Errorf("exit status 1"), "HTTP 404", 0},
		{"falls back to cause", "", fmt.Errorf("connection reset"), "connection reset", 0},
		{"exit code from cause", "boom", exitCoder{code: 2}, "boom", 2},
		{"unstarted process has no code", "boom", cause, "boom", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := errors.NewCommandError("wrangler secret put KEY", []byte(tt.stderr), tt.err)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCode, err.ExitCode)
			assert.True(t, stderrors.Is(err, tt.err))
			assert.True(t, stderrors.As(errors.SimplifyError(err), new(errors.CommandError)))
		})
	}
}

type exitCoder struct{ code int }

func (e exitCoder) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitCoder) ExitCode() int { return e.code }

func TestUnknownRegistryErrors(t *testing.T) {
	t.Parallel()

	err := errors.UnknownBackendError{Name: "lastpass", Valid: []string{"onepassword", "bitwarden"}}
	assert.Equal(t, `unknown backend "lastpass" (valid: bitwarden, onepassword)`, err.Error())

	terr := errors.UnknownTargetError{Name: "vercel", Valid: []string{"github", "cloudflare"}}
	assert.Equal(t, `unknown target "vercel" (valid: cloudflare, github)`, terr.Error())
}

func TestBackendSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend   string
		err       error
		wantMatch string
	}{
		{"bitwarden", fmt.Errorf("authentication failed for bitwarden: vault is locked"), "bw unlock"},
		{"bitwarden", fmt.Errorf("authentication failed for bitwarden: not logged in"), "bw login"},
		{"bitwarden", fmt.Errorf("bitwarden CLI 'bw' not found in PATH"), "bitwarden.com/help/cli"},
		{"bitwarden", fmt.Errorf("secret not found: team/Stripe/app-dev/KEY"), "bw list items"},
		{"onepassword", fmt.Errorf("account is not signed in"), "op signin"},
		{"onepassword", fmt.Errorf("onepassword CLI 'op' not found in PATH"), "developer.1password.com"},
		{"onepassword", fmt.Errorf("secret not found"), "op item list"},
		{"onepassword", fmt.Errorf("context deadline exceeded"), "--timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.wantMatch, func(t *testing.T) {
			err := errors.BackendError(tt.backend, "read", tt.err)
			assert.Contains(t, err.Error(), tt.wantMatch)
			assert.Contains(t, err.Error(), tt.backend+" backend error during read")
		})
	}
}

func TestBackendErrorDoesNotLeakRedactedSecrets(t *testing.T) {
	t.Parallel()

	secret := logging.Secret("sk-live-abcdef")
	err := errors.BackendError("onepassword", "write", fmt.Errorf("failed writing %s", secret))

	assert.NotContains(t, err.Error(), "sk-live-abcdef")
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	missing := errors.SimplifyError(fmt.Errorf("load: %w", errors.ErrConfigMissing))
	assert.Contains(t, missing.Error(), "shipkey scan")
	assert.True(t, stderrors.Is(missing, errors.ErrConfigMissing))

	jsonErr := errors.SimplifyError(fmt.Errorf("parse: %w", fmt.Errorf("invalid character '}' looking for beginning of object key string")))
	var cfgErr errors.ConfigError
	assert.True(t, stderrors.As(jsonErr, &cfgErr))

	perm := errors.SimplifyError(fmt.Errorf("open shipkey.json: permission denied"))
	assert.Contains(t, perm.Error(), "Permission denied")

	user := errors.UserError{Message: "already friendly"}
	assert.Equal(t, user, errors.SimplifyError(user))

	other := fmt.Errorf("something else")
	assert.Equal(t, other, errors.SimplifyError(other))
}
