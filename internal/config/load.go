package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	dserrors "github.com/shipkey/shipkey/internal/errors"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Load reads and validates shipkey.json at path. A missing file yields an
// error matching dserrors.ErrConfigMissing.
func Load(path string) (*ShipkeyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, dserrors.ErrConfigMissing)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the schema and decodes it.
func Parse(data []byte) (*ShipkeyConfig, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var cfg ShipkeyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, dserrors.ConfigError{
			Field:      "shipkey.json",
			Message:    "cannot decode configuration",
			Suggestion: "Check the file is valid JSON",
			Err:        err,
		}
	}
	return &cfg, nil
}

// Validate checks raw shipkey.json content against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return dserrors.ConfigError{
			Field:      "shipkey.json",
			Message:    "cannot parse configuration",
			Suggestion: "Check the file is valid JSON",
			Err:        err,
		}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	sort.Strings(problems)
	return dserrors.ConfigError{
		Field:      "shipkey.json",
		Message:    strings.Join(problems, "; "),
		Suggestion: "Run 'shipkey scan' to regenerate the configuration",
	}
}

// Save writes cfg to path as indented JSON with a trailing newline.
func Save(path string, cfg *ShipkeyConfig) error {
	if cfg == nil {
		return fmt.Errorf("no configuration to save")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
