package config

import (
	"time"

	"github.com/shipkey/shipkey/internal/logging"
)

// FileName is the per-project configuration file.
const FileName = "shipkey.json"

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Timeout        time.Duration
	MetricsFile    string
	Runtime        Runtime
	Project        *ShipkeyConfig
}

// Load reads the project configuration at c.Path
func (c *Config) Load() error {
	project, err := Load(c.Path)
	if err != nil {
		return err
	}
	c.Project = project
	return nil
}

// Save writes c.Project back to c.Path
func (c *Config) Save() error {
	return Save(c.Path, c.Project)
}

// Env returns the deployment environment commands operate on.
func (c *Config) Env(flag string) string {
	if flag != "" {
		return flag
	}
	if c.Runtime.Env != "" {
		return c.Runtime.Env
	}
	return DefaultEnv
}

// BackendName returns the backend to use, honouring the SHIPKEY_BACKEND
// override. An empty result means the registry default.
func (c *Config) BackendName() string {
	if c.Runtime.Backend != "" {
		return c.Runtime.Backend
	}
	if c.Project != nil {
		return c.Project.Backend
	}
	return ""
}

// Vault returns the vault to use, honouring the SHIPKEY_VAULT override.
func (c *Config) Vault() string {
	if c.Runtime.Vault != "" {
		return c.Runtime.Vault
	}
	if c.Project != nil && c.Project.Vault != "" {
		return c.Project.Vault
	}
	return DefaultVault
}
