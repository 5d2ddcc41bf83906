package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfigMissing is returned when no shipkey.json exists for a project.
var ErrConfigMissing = errors.New("shipkey configuration not found")

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents a failed store or platform CLI invocation
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
	Err        error
}

// NewCommandError describes a failed run of command. Message is the trimmed
// stderr, falling back to err's text, and ExitCode is taken from err when it
// carries one.
func NewCommandError(command string, stderr []byte, err error) CommandError {
	e := CommandError{
		Command: command,
		Message: strings.TrimSpace(string(stderr)),
		Err:     err,
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) && coder.ExitCode() > 0 {
		e.ExitCode = coder.ExitCode()
	}
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// UnknownBackendError is returned by the backend registry for unregistered names.
type UnknownBackendError struct {
	Name  string
	Valid []string
}

func (e UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend %q (valid: %s)", e.Name, joinSorted(e.Valid))
}

// UnknownTargetError is returned by the target registry for unregistered names.
type UnknownTargetError struct {
	Name  string
	Valid []string
}

func (e UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (valid: %s)", e.Name, joinSorted(e.Valid))
}

func joinSorted(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// BackendError enhances store-specific errors with context
func BackendError(backend string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s backend error during %s", backend, operation),
		Suggestion: getBackendSuggestion(backend, err),
		Err:        err,
	}
}

// getBackendSuggestion returns helpful suggestions based on backend and error
func getBackendSuggestion(backend string, err error) string {
	errStr := err.Error()

	switch backend {
	case "bitwarden":
		if strings.Contains(errStr, "not logged in") || strings.Contains(errStr, "unauthenticated") {
			return "Run 'bw login' to authenticate with Bitwarden"
		}
		if strings.Contains(errStr, "locked") {
			return "Run 'bw unlock' and export the BW_SESSION environment variable"
		}
		if strings.Contains(errStr, "not found in PATH") {
			return "Install Bitwarden CLI: https://bitwarden.com/help/cli/"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the folder and item exist. Use 'bw list items --search <name>' to search"
		}

	case "onepassword":
		if strings.Contains(errStr, "not signed in") || strings.Contains(errStr, "not logged in") {
			return "Run 'op signin' to authenticate with 1Password"
		}
		if strings.Contains(errStr, "session expired") {
			return "Your 1Password session has expired. Run 'op signin' again"
		}
		if strings.Contains(errStr, "not found in PATH") {
			return "Install 1Password CLI: https://developer.1password.com/docs/cli/get-started/"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the item exists. Use 'op item list --vault <vault>' to see available items"
		}
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Raise --timeout or check the store CLI"
	}

	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return err
	}

	if errors.Is(err, ErrConfigMissing) {
		return UserError{
			Message:    "No shipkey.json found",
			Suggestion: "Run 'shipkey scan' in the project root to create one",
			Err:        err,
		}
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}
	errStr := rootErr.Error()

	if strings.Contains(errStr, "json:") || strings.Contains(errStr, "invalid character") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Check shipkey.json for trailing commas and unquoted keys",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
