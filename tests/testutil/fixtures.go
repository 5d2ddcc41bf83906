package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shipkey/shipkey/internal/config"
)

// WriteTree creates files (slash-separated relative path to content) under a
// fresh temp dir and returns its path.
//
//	root := testutil.WriteTree(t, map[string]string{
//	    ".env":                  "OPENAI_API_KEY=sk-1\n",
//	    "apps/worker/.dev.vars": "RESEND_API_KEY=re_1\n",
//	})
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// WriteProject saves cfg as shipkey.json in dir and returns the file path.
func WriteProject(t *testing.T, dir string, cfg *config.ShipkeyConfig) string {
	t.Helper()

	path := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Save(path, cfg), "Failed to write %s", path)
	return path
}
