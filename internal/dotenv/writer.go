package dotenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Upsert writes values into the env file at path. Lines whose key is in
// values are rewritten in place, missing keys are appended in sorted order,
// and every other line is left byte-for-byte untouched. The file is created
// with mode 0600 if it does not exist. Running Upsert twice with the same
// values leaves the file unchanged.
func Upsert(path string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated := Apply(string(existing), values)
	if err == nil && updated == string(existing) {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	mode := os.FileMode(0o600)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Apply is the pure text transformation behind Upsert.
func Apply(content string, values map[string]string) string {
	if len(values) == 0 {
		return content
	}

	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}

	seen := make(map[string]bool, len(values))
	for i, line := range lines {
		pair, ok := parseLine(line)
		if !ok {
			continue
		}
		value, managed := values[pair.Key]
		if !managed {
			continue
		}
		seen[pair.Key] = true
		lines[i] = FormatLine(pair.Key, value)
	}

	var missing []string
	for key := range values {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		lines = append(lines, FormatLine(key, values[key]))
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatLine renders KEY=value, quoting values that would not survive Parse.
func FormatLine(key, value string) string {
	if needsQuotes(value) {
		return key + "=\"" + value + "\""
	}
	return key + "=" + value
}

func needsQuotes(v string) bool {
	if v == "" {
		return false
	}
	if strings.TrimSpace(v) != v || strings.ContainsAny(v, "#") {
		return true
	}
	// A value that already looks quoted would lose its quotes on read
	return Unquote(v) != v
}
