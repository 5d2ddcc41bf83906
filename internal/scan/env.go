package scan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/shipkey/shipkey/internal/dotenv"
)

// RootGroup is the directory label of files found at the scan root.
const RootGroup = "."

// EnvVar is one variable declared in an environment file. Value is nil for
// template files.
type EnvVar struct {
	Key        string
	Value      *string
	Source     string
	IsTemplate bool
}

// ScannedFile is one environment file and its variables.
type ScannedFile struct {
	Path       string
	Dir        string
	Name       string
	IsTemplate bool
	Vars       []EnvVar
}

// SubProjectGroup collects the files found in one directory.
type SubProjectGroup struct {
	Dir   string
	Files []ScannedFile
}

// ScanResult is the outcome of one environment file scan.
type ScanResult struct {
	Root       string
	Groups     []SubProjectGroup
	TotalFiles int
	TotalVars  int
}

// IsEnvFile reports whether name follows the environment file convention.
func IsEnvFile(name string) bool {
	for _, base := range EnvFileBases {
		if name == base {
			return true
		}
		if strings.HasPrefix(name, base+".") && len(name) > len(base)+1 {
			return true
		}
	}
	return false
}

// IsTemplate reports whether name declares shape only.
func IsTemplate(name string) bool {
	return strings.Contains(name, ".example") || strings.Contains(name, ".template")
}

// ScanEnvFiles walks root and parses every environment file outside SkipDirs.
// Groups are ordered by directory and files by name, so identical trees give
// identical results.
func ScanEnvFiles(root string) ScanResult {
	result := ScanResult{Root: root}
	index := make(map[string]int)

	for _, f := range walkFiles(root, IsEnvFile) {
		content, ok := readFile(f.path)
		if !ok {
			continue
		}
		file := parseEnvFile(f, content)

		i, exists := index[f.relDir]
		if !exists {
			i = len(result.Groups)
			index[f.relDir] = i
			result.Groups = append(result.Groups, SubProjectGroup{Dir: f.relDir})
		}
		result.Groups[i].Files = append(result.Groups[i].Files, file)
		result.TotalFiles++
		result.TotalVars += len(file.Vars)
	}
	return result
}

func parseEnvFile(f found, content string) ScannedFile {
	template := IsTemplate(f.name)
	source := filepath.ToSlash(filepath.Join(f.relDir, f.name))
	file := ScannedFile{
		Path:       f.path,
		Dir:        f.relDir,
		Name:       f.name,
		IsTemplate: template,
	}
	for _, pair := range dotenv.Parse(content) {
		v := EnvVar{Key: pair.Key, Source: source, IsTemplate: template}
		if !template {
			value := pair.Value
			v.Value = &value
		}
		file.Vars = append(file.Vars, v)
	}
	return file
}

// Keys returns every distinct key in scan order.
func (r ScanResult) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, g := range r.Groups {
		for _, f := range g.Files {
			for _, v := range f.Vars {
				if !seen[v.Key] {
					seen[v.Key] = true
					keys = append(keys, v.Key)
				}
			}
		}
	}
	return keys
}

// Group returns the group for dir, if any.
func (r ScanResult) Group(dir string) (SubProjectGroup, bool) {
	for _, g := range r.Groups {
		if g.Dir == dir {
			return g, true
		}
	}
	return SubProjectGroup{}, false
}

// FileEnv reports the environment an env file name targets and whether it
// is a local override. ".env" and ".env.local" target no environment;
// ".env.production.local" targets "production".
func FileEnv(name string) (env string, local bool) {
	for _, base := range EnvFileBases {
		rest, ok := strings.CutPrefix(name, base+".")
		if !ok {
			continue
		}
		parts := strings.Split(rest, ".")
		if parts[len(parts)-1] == "local" {
			local = true
			parts = parts[:len(parts)-1]
		}
		return strings.Join(parts, "."), local
	}
	return "", false
}

// envAliases maps long environment suffixes to their short names.
var envAliases = map[string]string{
	"development": "dev",
	"production":  "prod",
	"staging":     "stage",
}

func sameEnv(a, b string) bool {
	if a == b {
		return true
	}
	if alias, ok := envAliases[a]; ok {
		a = alias
	}
	if alias, ok := envAliases[b]; ok {
		b = alias
	}
	return a == b
}

// Values returns the key/value pairs env sees from the real (non-template)
// files of the groups accepted by include. Files for other environments are
// skipped. Within a group, later files override earlier ones in this order:
// ".env", ".env.local", ".env.<env>", ".env.<env>.local".
func (r ScanResult) Values(env string, include func(dir string) bool) map[string]string {
	values := make(map[string]string)
	for _, g := range r.Groups {
		if include != nil && !include(g.Dir) {
			continue
		}
		var files []ScannedFile
		for _, f := range g.Files {
			if f.IsTemplate {
				continue
			}
			if fileEnv, _ := FileEnv(f.Name); fileEnv != "" && !sameEnv(fileEnv, env) {
				continue
			}
			files = append(files, f)
		}
		sort.SliceStable(files, func(i, j int) bool {
			return overrideRank(files[i].Name) < overrideRank(files[j].Name)
		})
		for _, f := range files {
			for _, v := range f.Vars {
				if v.Value != nil {
					values[v.Key] = *v.Value
				}
			}
		}
	}
	return values
}

func overrideRank(name string) int {
	env, local := FileEnv(name)
	rank := 0
	if env != "" {
		rank += 2
	}
	if local {
		rank++
	}
	return rank
}
