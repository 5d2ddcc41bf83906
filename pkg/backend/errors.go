package backend

import "errors"

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotInstalled     = errors.New("store CLI not installed")
	ErrNotAuthenticated = errors.New("store not authenticated")
	ErrNotFound         = errors.New("secret not found")
)

// NotFoundError indicates that a ref does not resolve to a stored value.
type NotFoundError struct {
	Backend string
	Ref     SecretRef
	// Reason names the missing component ("folder", "item", "field").
	Reason string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	msg := "secret not found: " + e.Ref.String() + " in " + e.Backend
	if e.Reason != "" {
		msg += " (" + e.Reason + " missing)"
	}
	return msg
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotInstalledError indicates that the store CLI is missing from PATH.
type NotInstalledError struct {
	Backend string
	Command string
	Hint    string
}

// Error implements the error interface.
func (e NotInstalledError) Error() string {
	msg := e.Backend + " CLI not found in PATH"
	if e.Command != "" {
		msg = e.Backend + " CLI '" + e.Command + "' not found in PATH"
	}
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Is matches ErrNotInstalled.
func (e NotInstalledError) Is(target error) bool {
	return target == ErrNotInstalled
}

// AuthError indicates that the store is present but locked or signed out.
type AuthError struct {
	Backend string
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Backend + ": " + e.Message
}

// Is matches ErrNotAuthenticated.
func (e AuthError) Is(target error) bool {
	return target == ErrNotAuthenticated
}

// StatusError converts a non-ready status into the matching error, or nil.
func StatusError(b Backend, status Status) error {
	switch status {
	case StatusNotInstalled:
		return NotInstalledError{Backend: b.Name(), Hint: b.InstallHint()}
	case StatusNotLoggedIn:
		return AuthError{Backend: b.Name(), Message: "not logged in or vault locked"}
	default:
		return nil
	}
}
