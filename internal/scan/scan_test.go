package scan

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/shipkey/shipkey/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScanEnvFiles_MonorepoScenario(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".env":                      "DATABASE_URL=postgres://localhost\nAPI_KEY=sk-123\nSECRET=mysecret\n",
		".env.example":              "DATABASE_URL=\nAPI_KEY=\nSECRET=\n",
		"apps/api/.dev.vars.example": "STRIPE_KEY=\nWEBHOOK_SECRET=\n",
		"node_modules/pkg/.env":     "IGNORED=true\n",
	})

	result := ScanEnvFiles(root)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 8, result.TotalVars)
	require.Len(t, result.Groups, 2)

	rootGroup, ok := result.Group(RootGroup)
	require.True(t, ok)
	assert.Len(t, rootGroup.Files, 2)

	api, ok := result.Group("apps/api")
	require.True(t, ok)
	require.Len(t, api.Files, 1)
	assert.True(t, api.Files[0].IsTemplate)

	for _, g := range result.Groups {
		for _, f := range g.Files {
			assert.NotContains(t, f.Path, "node_modules")
			for _, v := range f.Vars {
				assert.NotEqual(t, "IGNORED", v.Key)
			}
		}
	}

	assert.Equal(t, []string{"API_KEY", "DATABASE_URL", "SECRET", "STRIPE_KEY", "WEBHOOK_SECRET"}, sortedCopy(result.Keys()))
}

func TestScanEnvFiles_TemplatesNeverCarryValues(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".env.example":  "API_KEY=sk-should-not-leak\n",
		".env.template": "TOKEN=\"also-not\"\n",
		".env":          "API_KEY=real\n",
	})

	result := ScanEnvFiles(root)
	require.Equal(t, 3, result.TotalFiles)

	for _, f := range result.Groups[0].Files {
		for _, v := range f.Vars {
			if f.IsTemplate {
				assert.Nil(t, v.Value, "%s in %s", v.Key, f.Name)
				assert.True(t, v.IsTemplate)
			} else {
				require.NotNil(t, v.Value)
				assert.Equal(t, "real", *v.Value)
			}
		}
	}

	assert.Equal(t, map[string]string{"API_KEY": "real"}, result.Values("dev", nil))
}

func TestScanEnvFiles_Deterministic(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".env":                "A=1",
		"apps/web/.env.local": "B=2",
		"apps/web/.env":       "C=3",
		"packages/x/.dev.vars": "D=4",
		"dist/.env":           "E=5",
		"apps/web/.git/.env":  "F=6",
	})

	first := ScanEnvFiles(root)
	second := ScanEnvFiles(root)
	assert.Equal(t, first, second)

	var dirs []string
	for _, g := range first.Groups {
		dirs = append(dirs, g.Dir)
	}
	assert.Equal(t, []string{".", "apps/web", "packages/x"}, dirs)
	web, _ := first.Group("apps/web")
	assert.Equal(t, ".env", web.Files[0].Name)
	assert.Equal(t, ".env.local", web.Files[1].Name)
	assert.Equal(t, 4, first.TotalVars)
}

func TestScanEnvFiles_MissingRoot(t *testing.T) {
	t.Parallel()

	result := ScanEnvFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 0, result.TotalFiles)
	assert.Empty(t, result.Groups)
}

func TestIsEnvFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{".env", ".env.local", ".env.example", ".dev.vars", ".dev.vars.example", ".env.production.local"} {
		assert.True(t, IsEnvFile(name), name)
	}
	for _, name := range []string{".envrc", "env", ".env.", "dev.vars", ".dev.varsx", "config.env"} {
		assert.False(t, IsEnvFile(name), name)
	}
}

func TestIsTemplate(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTemplate(".env.example"))
	assert.True(t, IsTemplate(".dev.vars.example"))
	assert.True(t, IsTemplate(".env.template"))
	assert.False(t, IsTemplate(".env.local"))
}

func TestFileEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		env   string
		local bool
	}{
		{".env", "", false},
		{".env.local", "", true},
		{".env.production", "production", false},
		{".env.production.local", "production", true},
		{".dev.vars", "", false},
		{".dev.vars.staging", "staging", false},
	}
	for _, tt := range tests {
		env, local := FileEnv(tt.name)
		assert.Equal(t, tt.env, env, tt.name)
		assert.Equal(t, tt.local, local, tt.name)
	}
}

func TestScanResultValues_SelectsFilesForEnv(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".env":                  "DATABASE_URL=postgres://localhost\nLOG_LEVEL=info\n",
		".env.local":            "LOG_LEVEL=debug\n",
		".env.production":       "DATABASE_URL=postgres://prod-db\nSENTRY_DSN=https://prod\n",
		".env.production.local": "SENTRY_DSN=https://prod-local\n",
		".env.development":      "FEATURE_FLAG=on\n",
		".env.example":          "DATABASE_URL=\n",
	})
	result := ScanEnvFiles(root)

	tests := []struct {
		env  string
		want map[string]string
	}{
		{
			env: "dev",
			want: map[string]string{
				"DATABASE_URL": "postgres://localhost",
				"LOG_LEVEL":    "debug",
				"FEATURE_FLAG": "on",
			},
		},
		{
			env: "production",
			want: map[string]string{
				"DATABASE_URL": "postgres://prod-db",
				"LOG_LEVEL":    "debug",
				"SENTRY_DSN":   "https://prod-local",
			},
		},
		{
			env: "prod",
			want: map[string]string{
				"DATABASE_URL": "postgres://prod-db",
				"LOG_LEVEL":    "debug",
				"SENTRY_DSN":   "https://prod-local",
			},
		},
		{
			env: "staging",
			want: map[string]string{
				"DATABASE_URL": "postgres://localhost",
				"LOG_LEVEL":    "debug",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, result.Values(tt.env, nil))
		})
	}
}

func TestScanDependencies(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"package.json":               `{"dependencies":{"stripe":"^14.0.0","openai":"^4"},"devDependencies":{"wrangler":"^3"}}`,
		"apps/api/package.json":      `{"dependencies":{"@aws-sdk/client-s3":"^3"}}`,
		"node_modules/x/package.json": `{"dependencies":{"ignored":"1"}}`,
		"worker/requirements.txt":    "# deps\nanthropic>=0.20\nboto3==1.34\n-r base.txt\n\n",
		"svc/go.mod":                 "module example.com/svc\n\ngo 1.22\n\nrequire (\n\tgithub.com/stripe/stripe-go/v76 v76.0.0\n)\n",
		"py/pyproject.toml":          "[project]\nname = \"x\"\ndependencies = [\"supabase>=2\", \"Resend\"]\n",
		"broken/package.json":        `{not json`,
	})

	deps := ScanDependencies(root)
	assert.Equal(t, []string{
		"@aws-sdk/client-s3",
		"anthropic",
		"boto3",
		"github.com/stripe/stripe-go/v76",
		"openai",
		"resend",
		"stripe",
		"supabase",
		"wrangler",
	}, deps)
}

func TestScanWorkflows(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".github/workflows/deploy.yml": `name: deploy
on: push
jobs:
  deploy:
    runs-on: ubuntu-latest
    env:
      OPENAI_API_KEY: ${{ secrets.OPENAI_API_KEY }}
    steps:
      - uses: actions/checkout@v4
      - run: npm ci
      - name: Deploy
        run: |
          npx wrangler deploy
          aws s3 sync ./dist s3://bucket
        env:
          CLOUDFLARE_API_TOKEN: ${{secrets.CLOUDFLARE_API_TOKEN}}
          GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}
`,
		".github/workflows/broken.yaml": "jobs: [unclosed\n  token: ${{ secrets.BROKEN_REF }}",
		".github/workflows/README.md":   "${{ secrets.NOT_A_WORKFLOW }}",
	})

	scan := ScanWorkflows(root)
	assert.Equal(t, []string{"BROKEN_REF", "CLOUDFLARE_API_TOKEN", "OPENAI_API_KEY"}, scan.Secrets)
	assert.Equal(t, []string{"npm ci", "npx wrangler deploy", "aws s3 sync ./dist s3://bucket"}, scan.Commands)
}

func TestScanWorkflows_NoDirectory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, WorkflowScan{}, ScanWorkflows(t.TempDir()))
}

func TestScanDeployManifests(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"apps/api/wrangler.toml": `name = "api-worker"
main = "src/index.ts"

[[kv_namespaces]]
binding = "CACHE"
id = "abc"

[ai]
binding = "AI"

[env.production]
[[env.production.queues.producers]]
binding = "JOBS"
queue = "jobs"
`,
		"apps/web/wrangler.jsonc": `{
  // comment
  "name": "web-worker",
  "r2_buckets": [{ "binding": "ASSETS", "bucket_name": "assets" }], /* block */
  "d1_databases": [],
}`,
		"apps/bad/wrangler.json": `{"name": `,
	})

	manifests := ScanDeployManifests(root)
	require.Len(t, manifests, 2)

	assert.Equal(t, "apps/api", manifests[0].Dir)
	assert.Equal(t, "api-worker", manifests[0].Name)
	assert.Equal(t, []string{"ai", "kv_namespaces", "queues"}, manifests[0].Bindings)

	assert.Equal(t, "apps/web", manifests[1].Dir)
	assert.Equal(t, "web-worker", manifests[1].Name)
	assert.Equal(t, []string{"r2_buckets"}, manifests[1].Bindings)

	assert.Equal(t, []string{"ai", "kv_namespaces", "queues", "r2_buckets"}, Bindings(manifests))
}

func TestStandardizeJSONC(t *testing.T) {
	t.Parallel()

	in := `{"url": "https://x.dev/a", // trailing
"list": [1, 2,], /* c */ "s": "/* not a comment */", "esc": "quote \" // kept",}`

	data, err := standardizeJSONC(in)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "https://x.dev/a", doc["url"])
	assert.Equal(t, []interface{}{float64(1), float64(2)}, doc["list"])
	assert.Equal(t, "/* not a comment */", doc["s"])
	assert.Equal(t, `quote " // kept`, doc["esc"])
}

func TestDecodeWranglerTrailingCommaBeforeComment(t *testing.T) {
	t.Parallel()

	in := "{\"name\": \"api-worker\", \"kv_namespaces\": [{\"binding\": \"CACHE\"}], // cache\n}"

	doc, ok := decodeWrangler("wrangler.jsonc", in)
	require.True(t, ok)
	assert.Equal(t, "api-worker", doc["name"])
	assert.Equal(t, []string{"kv_namespaces"}, wranglerBindings(doc))
}

func TestParseGitHubRemote(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"git@github.com:acme/shipcast.git":     "acme/shipcast",
		"https://github.com/acme/shipcast":     "acme/shipcast",
		"https://github.com/acme/shipcast.git": "acme/shipcast",
		"ssh://git@github.com/acme/shipcast/":  "acme/shipcast",
		"https://gitlab.com/acme/shipcast.git": "",
		"https://github.com/acme":              "",
		"":                                     "",
	}
	for remote, want := range tests {
		assert.Equal(t, want, ParseGitHubRemote(remote), remote)
	}
}

func TestGitHubRepo(t *testing.T) {
	t.Parallel()

	mockExec := testutil.NewMockCommandExecutor()
	mockExec.AddJSONResponse("git -C /work remote get-url origin", "git@github.com:acme/shipcast.git\n")
	assert.Equal(t, "acme/shipcast", GitHubRepo(context.Background(), mockExec, "/work"))

	failing := testutil.NewMockCommandExecutor()
	failing.AddErrorResponse("git", "fatal: not a git repository", 128)
	assert.Equal(t, "", GitHubRepo(context.Background(), failing, "/work"))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
