package backend

import (
	"context"
	"fmt"
	"strings"
)

// SecretRef identifies one credential field in a store.
type SecretRef struct {
	Vault    string `json:"vault"`
	Provider string `json:"provider"`
	Project  string `json:"project"`
	Env      string `json:"env"`
	Field    string `json:"field"`
}

// Section returns the "{project}-{env}" grouping both stores use.
func (r SecretRef) Section() string {
	return r.Project + "-" + r.Env
}

// String renders the ref as vault/provider/project-env/field.
func (r SecretRef) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.Vault, r.Provider, r.Section(), r.Field)
}

// Validate checks that every component is set.
func (r SecretRef) Validate() error {
	var missing []string
	if r.Vault == "" {
		missing = append(missing, "vault")
	}
	if r.Provider == "" {
		missing = append(missing, "provider")
	}
	if r.Project == "" {
		missing = append(missing, "project")
	}
	if r.Env == "" {
		missing = append(missing, "env")
	}
	if r.Field == "" {
		missing = append(missing, "field")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid secret ref %q: missing %s", r.String(), strings.Join(missing, ", "))
	}
	return nil
}

// SecretEntry is a value to be stored at Ref.
type SecretEntry struct {
	Ref   SecretRef
	Value string
}

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Project string
	Env     string
}

// Matches reports whether ref satisfies the filter.
func (f ListFilter) Matches(ref SecretRef) bool {
	if f.Project != "" && ref.Project != f.Project {
		return false
	}
	if f.Env != "" && ref.Env != f.Env {
		return false
	}
	return true
}

// Status is the availability state of a store.
type Status string

const (
	StatusNotInstalled Status = "not_installed"
	StatusNotLoggedIn  Status = "not_logged_in"
	StatusReady        Status = "ready"
)

// Backend is implemented by every secret store shipkey can drive.
type Backend interface {
	// Name returns the registry name of the backend ("onepassword", "bitwarden").
	Name() string

	// CheckStatus probes the store CLI: installed, then authenticated.
	CheckStatus(ctx context.Context) Status

	// Read returns the value stored at ref or a NotFoundError.
	Read(ctx context.Context, ref SecretRef) (string, error)

	// Write upserts entry. Writing the same value twice is a no-op.
	Write(ctx context.Context, entry SecretEntry) error

	// List enumerates refs stored in vault that match filter. It returns an
	// empty slice, not an error, when nothing matches.
	List(ctx context.Context, vault string, filter ListFilter) ([]SecretRef, error)

	// BuildInlineRef returns a store-native string that external tooling can
	// resolve without shipkey. ok is false when the store has no such
	// mechanism; that is an expected branch, not an error.
	BuildInlineRef(ref SecretRef) (inline string, ok bool)

	// InstallHint tells the user how to install the store CLI.
	InstallHint() string
}

// IsAvailable reports whether b is ready for use.
func IsAvailable(ctx context.Context, b Backend) bool {
	return b.CheckStatus(ctx) == StatusReady
}
