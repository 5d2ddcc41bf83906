package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkflowDir is where GitHub Actions workflows live, relative to the root.
const WorkflowDir = ".github/workflows"

var secretExpr = regexp.MustCompile(`\$\{\{\s*secrets\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// builtinSecrets are provided by the platform and never synced.
var builtinSecrets = map[string]bool{"GITHUB_TOKEN": true}

// WorkflowScan is what the CI workflow scan extracts.
type WorkflowScan struct {
	// Secrets are the distinct secrets.NAME references, sorted.
	Secrets []string
	// Commands are the non-empty lines of every run: block, in file order.
	Commands []string
}

// ScanWorkflows reads every .yml/.yaml file in root/.github/workflows.
func ScanWorkflows(root string) WorkflowScan {
	dir := filepath.Join(root, filepath.FromSlash(WorkflowDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return WorkflowScan{}
	}

	secrets := make(map[string]bool)
	var result WorkflowScan
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		content, ok := readFile(filepath.Join(dir, e.Name()))
		if !ok {
			continue
		}
		for _, m := range secretExpr.FindAllStringSubmatch(content, -1) {
			if !builtinSecrets[m[1]] {
				secrets[m[1]] = true
			}
		}
		result.Commands = append(result.Commands, runCommands(content)...)
	}

	for name := range secrets {
		result.Secrets = append(result.Secrets, name)
	}
	sort.Strings(result.Secrets)
	return result
}

// runCommands collects the lines of every "run" scalar in the document.
// Malformed YAML yields nothing.
func runCommands(content string) []string {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil
	}
	var out []string
	var visit func(n *yaml.Node)
	visit = func(n *yaml.Node) {
		if n.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(n.Content); i += 2 {
				key, value := n.Content[i], n.Content[i+1]
				if key.Value == "run" && value.Kind == yaml.ScalarNode {
					for _, line := range strings.Split(value.Value, "\n") {
						if line = strings.TrimSpace(line); line != "" {
							out = append(out, line)
						}
					}
					continue
				}
				visit(value)
			}
			return
		}
		for _, c := range n.Content {
			visit(c)
		}
	}
	visit(&doc)
	return out
}
