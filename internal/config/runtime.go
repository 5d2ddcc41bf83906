package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables consulted by the CLI.
const (
	EnvBackend = "SHIPKEY_BACKEND"
	EnvVault   = "SHIPKEY_VAULT"
	EnvEnv     = "SHIPKEY_ENV"
)

// Runtime carries per-invocation overrides that never reach shipkey.json.
type Runtime struct {
	Backend string
	Vault   string
	Env     string
}

// RuntimeFromEnv reads overrides using lookup (os.LookupEnv in production).
func RuntimeFromEnv(lookup func(string) (string, bool)) Runtime {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return Runtime{
		Backend: get(EnvBackend),
		Vault:   get(EnvVault),
		Env:     get(EnvEnv),
	}
}

// OverridesFile returns ~/.shipkey/env, or "" when the home dir is unknown.
func OverridesFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shipkey", "env")
}

// LoadOverrides loads KEY=VALUE lines from path into the process
// environment without replacing variables that are already set. A missing
// file is not an error.
func LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
