package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Defaults for a freshly scanned project.
const (
	DefaultVault = "shipkey"
	DefaultEnv   = "dev"
)

// Known sync platforms under "targets".
const (
	TargetGitHub     = "github"
	TargetCloudflare = "cloudflare"
)

// ShipkeyConfig is the persisted shipkey.json document.
type ShipkeyConfig struct {
	Project   string                    `json:"project"`
	Vault     string                    `json:"vault"`
	Backend   string                    `json:"backend,omitempty"`
	Providers map[string]ProviderConfig `json:"providers,omitempty"`
	Targets   Targets                   `json:"targets,omitempty"`
}

// ProviderConfig describes the fields shipkey tracks for one provider.
type ProviderConfig struct {
	Fields      []string     `json:"fields"`
	GuideURL    string       `json:"guide_url,omitempty"`
	Guide       string       `json:"guide,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is an advisory access-scope hint and the signal that produced it.
type Permission struct {
	Permission string `json:"permission"`
	Source     string `json:"source"`
}

// Targets maps platform -> destination -> what to sync there.
type Targets map[string]map[string]TargetDestination

// TargetDestination is either an ordered list of field names resolved
// through providers, or an explicit secret name -> reference map.
type TargetDestination struct {
	Fields []string
	Refs   map[string]string
}

// IsMap reports whether the destination uses the explicit map form.
func (d TargetDestination) IsMap() bool {
	return d.Refs != nil
}

// MarshalJSON emits an array or an object.
func (d TargetDestination) MarshalJSON() ([]byte, error) {
	if d.Refs != nil {
		return json.Marshal(d.Refs)
	}
	if d.Fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Fields)
}

// UnmarshalJSON accepts an array of field names or an object of references.
func (d *TargetDestination) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty target destination")
	}
	switch trimmed[0] {
	case '[':
		var fields []string
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		d.Fields, d.Refs = fields, nil
		return nil
	case '{':
		refs := map[string]string{}
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return err
		}
		d.Fields, d.Refs = nil, refs
		return nil
	default:
		return fmt.Errorf("target destination must be an array or an object, got %s", string(trimmed))
	}
}

// FindField returns the provider that declares field, if any. Providers are
// searched in name order so the answer is stable.
func (c *ShipkeyConfig) FindField(field string) (string, bool) {
	for _, name := range c.ProviderNames() {
		for _, f := range c.Providers[name].Fields {
			if f == field {
				return name, true
			}
		}
	}
	return "", false
}

// ProviderNames returns provider names sorted.
func (c *ShipkeyConfig) ProviderNames() []string {
	return sortedKeys(c.Providers)
}
