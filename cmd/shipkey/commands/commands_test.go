package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipkey/shipkey/internal/backends"
	"github.com/shipkey/shipkey/internal/config"
	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/shipkey/shipkey/internal/metrics"
	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/pkg/backend"
	"github.com/shipkey/shipkey/tests/fakes"
	"github.com/shipkey/shipkey/tests/testutil"
)

func testApp(store backend.Backend, platforms ...targets.Target) *App {
	var entries []targets.Entry
	for _, p := range platforms {
		entries = append(entries, targets.Entry{Name: p.Name(), Factory: func(targets.Deps) targets.Target { return p }})
	}
	return &App{
		Executor: testutil.NewMockCommandExecutor(),
		Backends: backends.NewRegistry(backends.Entry{
			Name:    store.Name(),
			Factory: func(backends.Deps) backend.Backend { return store },
		}),
		Targets: targets.NewRegistry(entries...),
		Metrics: metrics.New(),
	}
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	return &config.Config{
		Path:   filepath.Join(dir, config.FileName),
		Logger: logging.NewWithWriter(&bytes.Buffer{}, false, true),
	}
}

func saveProject(t *testing.T, cfg *config.Config, project *config.ShipkeyConfig) {
	t.Helper()
	cfg.Path = testutil.WriteProject(t, filepath.Dir(cfg.Path), project)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func devRef(provider, field string) backend.SecretRef {
	return backend.SecretRef{Vault: "v", Provider: provider, Project: "myapp", Env: "dev", Field: field}
}

func myapp() *config.ShipkeyConfig {
	return &config.ShipkeyConfig{
		Project: "myapp",
		Vault:   "v",
		Providers: map[string]config.ProviderConfig{
			"OpenAI": {Fields: []string{"OPENAI_API_KEY"}},
		},
	}
}

func TestScanCommand_CreatesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\nSTRIPE_SECRET_KEY=sk_2\n")
	writeFile(t, filepath.Join(dir, ".env.example"), "FOO_BAR=\n")
	cfg := testConfig(t, dir)

	output, err := execute(t, NewScanCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), dir)
	require.NoError(t, err)
	assert.Contains(t, output, "Scanned 2 env files (3 variables)")
	assert.Contains(t, output, "PROVIDER")

	saved, err := config.Load(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), saved.Project)
	assert.Equal(t, config.DefaultVault, saved.Vault)
	assert.ElementsMatch(t, []string{"OpenAI", "Stripe", "General"}, saved.ProviderNames())

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	testutil.AssertNoSecretLeak(t, string(data), []string{"sk-1", "sk_2"})
}

func TestScanCommand_MergesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\n")
	cfg := testConfig(t, dir)
	saveProject(t, cfg, &config.ShipkeyConfig{
		Project: "myapp",
		Vault:   "team",
		Providers: map[string]config.ProviderConfig{
			"Manual": {Fields: []string{"MANUAL_KEY"}, Guide: "ask ops"},
		},
	})

	_, err := execute(t, NewScanCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), dir)
	require.NoError(t, err)

	saved, err := config.Load(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, "myapp", saved.Project)
	assert.Equal(t, "team", saved.Vault)
	assert.ElementsMatch(t, []string{"Manual", "OpenAI"}, saved.ProviderNames())
	assert.Equal(t, "ask ops", saved.Providers["Manual"].Guide)
}

func TestScanCommand_DryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\n")
	cfg := testConfig(t, dir)

	_, err := execute(t, NewScanCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), dir, "--dry-run")
	require.NoError(t, err)

	_, err = os.Stat(cfg.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestPushCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\n")
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	store := fakes.NewFakeBackend("memory")
	output, err := execute(t, NewPushCommand(cfg, testApp(store)), dir, "--env", "prod")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ v/OpenAI/myapp-prod/OPENAI_API_KEY")

	ref := devRef("OpenAI", "OPENAI_API_KEY")
	ref.Env = "prod"
	v, ok := store.Value(ref)
	require.True(t, ok)
	assert.Equal(t, "sk-1", v)
}

func TestPushCommand_ReportsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\nSTRIPE_SECRET_KEY=sk_2\n")
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	store := fakes.NewFakeBackend("memory").WithWriteError("Stripe", errors.New("item locked"))
	output, err := execute(t, NewPushCommand(cfg, testApp(store)), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 secrets failed")
	assert.Contains(t, output, "✗ v/Stripe/myapp-dev/STRIPE_SECRET_KEY: item locked")
	assert.Equal(t, 2, store.CallCount("Write"))
}

func TestPushCommand_MissingConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)

	_, err := execute(t, NewPushCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, dserrors.ErrConfigMissing)
	assert.Contains(t, err.Error(), "shipkey scan")
}

func TestPushCommand_UnknownBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	project := myapp()
	project.Backend = "lastpass"
	saveProject(t, cfg, project)

	_, err := execute(t, NewPushCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), dir)
	require.Error(t, err)
	var unknown dserrors.UnknownBackendError
	assert.ErrorAs(t, err, &unknown)
}

func TestPushCommand_BackendLocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-1\n")
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	store := fakes.NewFakeBackend("memory").WithStatus(backend.StatusNotLoggedIn)
	_, err := execute(t, NewPushCommand(cfg, testApp(store)), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrNotAuthenticated)
	assert.Zero(t, store.CallCount("Write"))
}

func TestPullCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	store := fakes.NewFakeBackend("memory").
		WithSecret(devRef("OpenAI", "OPENAI_API_KEY"), "sk-pulled").
		WithSecret(devRef("Stripe", "STRIPE_SECRET_KEY"), "sk_stripe")
	out := filepath.Join(dir, ".env.local")

	_, err := execute(t, NewPullCommand(cfg, testApp(store)), "--output", out)
	require.NoError(t, err)

	testutil.AssertEnvFile(t, out, map[string]string{
		"OPENAI_API_KEY":    "sk-pulled",
		"STRIPE_SECRET_KEY": "sk_stripe",
	})
}

func TestPullCommand_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	store := fakes.NewFakeBackend("memory").WithSecret(devRef("OpenAI", "OPENAI_API_KEY"), "sk")
	out := filepath.Join(dir, ".env")

	output, err := execute(t, NewPullCommand(cfg, testApp(store)), "--output", out, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, output, "v/OpenAI/myapp-dev/OPENAI_API_KEY")
	assert.Zero(t, store.CallCount("Read"))
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestListCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	other := devRef("Stripe", "STRIPE_SECRET_KEY")
	other.Project = "other"
	store := fakes.NewFakeBackend("memory").
		WithInlineRefs().
		WithSecret(devRef("OpenAI", "OPENAI_API_KEY"), "sk").
		WithSecret(other, "sk_other")

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "project scope",
			contains: []string{"OPENAI_API_KEY", "fake://v/OpenAI/myapp-dev/OPENAI_API_KEY"},
			excludes: []string{"STRIPE_SECRET_KEY"},
		},
		{
			name:     "all projects",
			args:     []string{"--all"},
			contains: []string{"OPENAI_API_KEY", "STRIPE_SECRET_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, NewListCommand(cfg, testApp(store)), tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestSyncCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	project := myapp()
	project.Targets = config.Targets{
		config.TargetGitHub: {"acme/app": {Fields: []string{"OPENAI_API_KEY"}}},
	}
	saveProject(t, cfg, project)

	store := fakes.NewFakeBackend("memory").WithSecret(devRef("OpenAI", "OPENAI_API_KEY"), "sk-ai")
	gh := fakes.NewFakeTarget(config.TargetGitHub)
	app := testApp(store, gh)

	output, err := execute(t, NewSyncCommand(cfg, app))
	require.NoError(t, err)
	assert.Contains(t, output, "github acme/app")
	assert.Contains(t, output, "✓ OPENAI_API_KEY")
	assert.Equal(t, map[string]string{"OPENAI_API_KEY": "sk-ai"}, gh.Synced("acme/app"))
}

func TestSyncCommand_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	project := myapp()
	project.Targets = config.Targets{
		config.TargetGitHub: {"acme/app": {Fields: []string{"OPENAI_API_KEY", "UNKNOWN_KEY"}}},
	}
	saveProject(t, cfg, project)

	store := fakes.NewFakeBackend("memory").WithSecret(devRef("OpenAI", "OPENAI_API_KEY"), "sk-ai")
	gh := fakes.NewFakeTarget(config.TargetGitHub)

	output, err := execute(t, NewSyncCommand(cfg, testApp(store, gh)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 secrets failed to sync")
	assert.Contains(t, output, "✗ UNKNOWN_KEY")
}

func TestSyncCommand_UnknownTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	saveProject(t, cfg, myapp())

	_, err := execute(t, NewSyncCommand(cfg, testApp(fakes.NewFakeBackend("memory"))), "--target", "heroku")
	var unknown dserrors.UnknownTargetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "heroku", unknown.Name)
}

func TestStatusCommand(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, t.TempDir())
	app := testApp(
		fakes.NewFakeBackend("memory"),
		fakes.NewFakeTarget(config.TargetGitHub).WithStatus(backend.StatusNotInstalled),
	)

	output, err := execute(t, NewStatusCommand(cfg, app))
	require.NoError(t, err)
	assert.Contains(t, output, "✓ ready")
	assert.Contains(t, output, "✗ not_installed")
	assert.Contains(t, output, "fake targets need no installation")
	assert.Contains(t, output, "Summary: 1/2 ready")
}

func TestSessionCommand(t *testing.T) {
	t.Parallel()

	var saved string
	cleared := false
	store := SessionStore{
		Save:  func(token string) error { saved = token; return nil },
		Clear: func() error { cleared = true; return nil },
	}
	cfg := testConfig(t, t.TempDir())

	cmd := NewSessionCommand(cfg, store)
	cmd.SetIn(strings.NewReader("tok-from-stdin\n"))
	_, err := execute(t, cmd, "set")
	require.NoError(t, err)
	assert.Equal(t, "tok-from-stdin", saved)

	_, err = execute(t, NewSessionCommand(cfg, store), "set", "tok-arg")
	require.NoError(t, err)
	assert.Equal(t, "tok-arg", saved)

	_, err = execute(t, NewSessionCommand(cfg, store), "clear")
	require.NoError(t, err)
	assert.True(t, cleared)

	empty := NewSessionCommand(cfg, store)
	empty.SetIn(strings.NewReader(""))
	_, err = execute(t, empty, "set")
	assert.Error(t, err)
}

func TestCompletionCommand(t *testing.T) {
	t.Parallel()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			output, err := execute(t, NewCompletionCommand(), shell)
			require.NoError(t, err)
			assert.NotEmpty(t, output)
		})
	}

	_, err := execute(t, NewCompletionCommand(), "tcsh")
	assert.Error(t, err)
}
