// Package backend defines the secret store abstraction used by shipkey.
//
// A backend maps the uniform reference model onto a concrete store layout.
// Every stored credential is addressed by a SecretRef:
//
//	vault     logical namespace (one per team or project family)
//	provider  the service that issued the credential (OpenAI, Stripe, ...)
//	project   the project that consumes it
//	env       deployment environment ("dev", "prod", ...)
//	field     the environment variable name
//
// The tuple (provider, project, env, field) is unique within a vault.
//
// # Store Layouts
//
// Backends are free to choose their own encoding as long as it round-trips.
// The 1Password backend stores one item per provider with one section per
// "{project}-{env}" and one concealed field per variable, and can express a
// ref as an op:// URI that the op CLI resolves on its own. The Bitwarden
// backend stores one secure note per provider inside a folder named after the
// vault, with one custom field per "{project}-{env}.{field}". It has no
// indirection mechanism, so BuildInlineRef reports ok == false and callers
// embed resolved values instead.
//
// # Availability
//
// CheckStatus is a three-state probe:
//
//	StatusNotInstalled  the store CLI is not on PATH
//	StatusNotLoggedIn   the CLI is present but locked or unauthenticated
//	StatusReady         reads and writes can be issued
//
// # Error Handling
//
// Read returns NotFoundError when the path does not resolve. Store access
// failures surface as NotInstalledError or AuthError. All three match the
// package sentinels with errors.Is:
//
//	if errors.Is(err, backend.ErrNotFound) {
//	    // fall back or report
//	}
//
// Decoding a store-native name never fails with an error: names that do not
// follow the encoding belong to someone else and are reported with ok == false.
//
// # Concurrency
//
// Both built-in stores perform read-modify-write on a shared per-provider
// record. Writes to the same (vault, provider) pair must be serialized by the
// caller; internal/backends.Serialize provides that.
package backend
