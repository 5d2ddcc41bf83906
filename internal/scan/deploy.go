package scan

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tailscale/hujson"
)

// BindingKinds are the wrangler configuration keys treated as bindings.
var BindingKinds = []string{
	"kv_namespaces",
	"r2_buckets",
	"d1_databases",
	"queues",
	"ai",
	"vectorize",
	"durable_objects",
	"hyperdrive",
	"browser",
}

var wranglerNames = map[string]bool{
	"wrangler.toml":  true,
	"wrangler.json":  true,
	"wrangler.jsonc": true,
}

// DeployManifest is one deployment tool configuration.
type DeployManifest struct {
	Path string
	Dir  string
	Tool string
	// Name is the deployed worker name, if declared.
	Name string
	// Bindings are the binding kinds declared, sorted.
	Bindings []string
}

// ScanDeployManifests finds wrangler configurations under root.
func ScanDeployManifests(root string) []DeployManifest {
	var out []DeployManifest
	for _, f := range walkFiles(root, func(name string) bool { return wranglerNames[name] }) {
		content, ok := readFile(f.path)
		if !ok {
			continue
		}
		doc, ok := decodeWrangler(f.name, content)
		if !ok {
			continue
		}
		m := DeployManifest{Path: f.path, Dir: f.relDir, Tool: "wrangler"}
		if name, ok := doc["name"].(string); ok {
			m.Name = name
		}
		m.Bindings = wranglerBindings(doc)
		out = append(out, m)
	}
	return out
}

// Bindings returns the distinct binding kinds across manifests, sorted.
func Bindings(manifests []DeployManifest) []string {
	seen := make(map[string]bool)
	for _, m := range manifests {
		for _, b := range m.Bindings {
			seen[b] = true
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func decodeWrangler(name, content string) (map[string]interface{}, bool) {
	doc := make(map[string]interface{})
	if strings.HasSuffix(name, ".toml") {
		if _, err := toml.Decode(content, &doc); err != nil {
			return nil, false
		}
		return doc, true
	}
	data, err := standardizeJSONC(content)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// wranglerBindings looks at the top level and at every [env.*] table.
func wranglerBindings(doc map[string]interface{}) []string {
	seen := make(map[string]bool)
	collect := func(table map[string]interface{}) {
		for _, kind := range BindingKinds {
			if v, ok := table[kind]; ok && !isEmptyValue(v) {
				seen[kind] = true
			}
		}
	}
	collect(doc)
	if envs, ok := doc["env"].(map[string]interface{}); ok {
		for _, e := range envs {
			if table, ok := e.(map[string]interface{}); ok {
				collect(table)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []interface{}:
		return len(t) == 0
	case []map[string]interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// standardizeJSONC turns JSONC (comments, trailing commas) into plain JSON.
func standardizeJSONC(content string) ([]byte, error) {
	return hujson.Standardize([]byte(content))
}
