// Package scan discovers environment files, dependency manifests, CI
// workflows and deployment manifests in a project tree. Scanners never fail
// on bad input: unreadable or malformed files are skipped.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// EnvFileBases are the recognized environment file names. A file matches if
// its name equals a base or is a base followed by "." and a suffix.
var EnvFileBases = []string{".env", ".dev.vars"}

// SkipDirs are directory names never descended into, at any depth.
var SkipDirs = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	".next",
	".nuxt",
	".output",
	".turbo",
	".vercel",
	".wrangler",
	".svelte-kit",
	"coverage",
	"vendor",
	"target",
	"__pycache__",
	".venv",
	"venv",
}

var skipSet = func() map[string]bool {
	m := make(map[string]bool, len(SkipDirs))
	for _, d := range SkipDirs {
		m[d] = true
	}
	return m
}()

// IsSkippedDir reports whether a directory with this name is excluded.
func IsSkippedDir(name string) bool {
	return skipSet[name]
}

// found is a matched file during a walk.
type found struct {
	path   string
	relDir string
	name   string
}

// walkFiles returns every regular file under root accepted by match, sorted
// by relative path. Walk errors are swallowed.
func walkFiles(root string, match func(name string) bool) []found {
	var out []found
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !match(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(root, filepath.Dir(path))
		if relErr != nil {
			return nil
		}
		out = append(out, found{path: path, relDir: filepath.ToSlash(rel), name: d.Name()})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].relDir != out[j].relDir {
			return out[i].relDir < out[j].relDir
		}
		return out[i].name < out[j].name
	})
	return out
}

func readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
