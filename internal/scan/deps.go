package scan

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

var manifestNames = map[string]bool{
	"package.json":   true,
	"go.mod":         true,
	"pyproject.toml": true,
}

func isDependencyManifest(name string) bool {
	if manifestNames[name] {
		return true
	}
	return strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt")
}

// ScanDependencies returns the sorted, distinct dependency package names
// declared by every manifest under root.
func ScanDependencies(root string) []string {
	seen := make(map[string]bool)
	for _, f := range walkFiles(root, isDependencyManifest) {
		content, ok := readFile(f.path)
		if !ok {
			continue
		}
		var names []string
		switch {
		case f.name == "package.json":
			names = packageJSONDeps(content)
		case f.name == "go.mod":
			names = goModDeps(f.path, content)
		case f.name == "pyproject.toml":
			names = pyprojectDeps(content)
		default:
			names = requirementsDeps(content)
		}
		for _, n := range names {
			seen[n] = true
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func packageJSONDeps(content string) []string {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
		PeerDeps        map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil
	}
	var names []string
	for _, m := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDeps} {
		for name := range m {
			names = append(names, name)
		}
	}
	return names
}

func goModDeps(path, content string) []string {
	f, err := modfile.ParseLax(path, []byte(content), nil)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(f.Require))
	for _, r := range f.Require {
		names = append(names, r.Mod.Path)
	}
	return names
}

var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

// pythonRequirement extracts the distribution name from a PEP 508 string.
func pythonRequirement(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.HasPrefix(spec, "#") || strings.HasPrefix(spec, "-") {
		return "", false
	}
	m := requirementName.FindStringSubmatch(spec)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

func requirementsDeps(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		if name, ok := pythonRequirement(line); ok {
			names = append(names, name)
		}
	}
	return names
}

func pyprojectDeps(content string) []string {
	var doc struct {
		Project struct {
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
	}
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil
	}
	specs := append([]string(nil), doc.Project.Dependencies...)
	for _, group := range doc.Project.OptionalDependencies {
		specs = append(specs, group...)
	}
	var names []string
	for _, s := range specs {
		if name, ok := pythonRequirement(s); ok {
			names = append(names, name)
		}
	}
	return names
}
