package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existingConfig() *ShipkeyConfig {
	return &ShipkeyConfig{
		Project: "myapp",
		Vault:   "team",
		Backend: "bitwarden",
		Providers: map[string]ProviderConfig{
			"OpenAI": {
				Fields:   []string{"OPENAI_API_KEY"},
				GuideURL: "https://example.com/custom",
				Permissions: []Permission{
					{Permission: "old", Source: "dependency:openai"},
				},
			},
			"Legacy": {Fields: []string{"LEGACY_TOKEN"}},
		},
		Targets: Targets{
			TargetGitHub: {
				"acme/myapp": {Fields: []string{"OPENAI_API_KEY"}},
			},
			TargetCloudflare: {
				"api": {Refs: map[string]string{"KEY": "OpenAI/OPENAI_API_KEY"}},
			},
		},
	}
}

func scannedConfig() *ShipkeyConfig {
	return &ShipkeyConfig{
		Project: "scanned-name",
		Vault:   DefaultVault,
		Providers: map[string]ProviderConfig{
			"OpenAI": {
				Fields:   []string{"OPENAI_ORG_ID", "OPENAI_API_KEY"},
				GuideURL: "https://platform.openai.com/api-keys",
				Guide:    "Create a key",
				Permissions: []Permission{
					{Permission: "Model access", Source: "dependency:openai"},
				},
			},
			"Stripe": {Fields: []string{"STRIPE_SECRET_KEY"}},
		},
		Targets: Targets{
			TargetGitHub: {
				"acme/myapp": {Fields: []string{"STRIPE_SECRET_KEY", "OPENAI_API_KEY"}},
				"acme/other": {Fields: []string{"X"}},
			},
			TargetCloudflare: {
				"api": {Fields: []string{"ignored"}},
			},
		},
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	merged := Merge(existingConfig(), scannedConfig())

	assert.Equal(t, "myapp", merged.Project)
	assert.Equal(t, "team", merged.Vault)
	assert.Equal(t, "bitwarden", merged.Backend)

	openai := merged.Providers["OpenAI"]
	assert.Equal(t, []string{"OPENAI_API_KEY", "OPENAI_ORG_ID"}, openai.Fields)
	assert.Equal(t, "https://example.com/custom", openai.GuideURL)
	assert.Equal(t, "Create a key", openai.Guide)
	assert.Equal(t, []Permission{{Permission: "Model access", Source: "dependency:openai"}}, openai.Permissions)

	assert.Equal(t, []string{"LEGACY_TOKEN"}, merged.Providers["Legacy"].Fields)
	assert.Equal(t, []string{"STRIPE_SECRET_KEY"}, merged.Providers["Stripe"].Fields)

	assert.Equal(t, []string{"OPENAI_API_KEY", "STRIPE_SECRET_KEY"},
		merged.Targets[TargetGitHub]["acme/myapp"].Fields)
	assert.Equal(t, []string{"X"}, merged.Targets[TargetGitHub]["acme/other"].Fields)
	assert.Equal(t, map[string]string{"KEY": "OpenAI/OPENAI_API_KEY"},
		merged.Targets[TargetCloudflare]["api"].Refs)
}

func TestMergeKeepsPermissionsWhenScanHasNone(t *testing.T) {
	t.Parallel()

	scanned := scannedConfig()
	p := scanned.Providers["OpenAI"]
	p.Permissions = nil
	scanned.Providers["OpenAI"] = p

	merged := Merge(existingConfig(), scanned)
	assert.Equal(t, []Permission{{Permission: "old", Source: "dependency:openai"}},
		merged.Providers["OpenAI"].Permissions)
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	x := existingConfig()
	assert.Equal(t, x, Merge(x, x))

	a, b := existingConfig(), scannedConfig()
	once := Merge(a, b)
	assert.Equal(t, once, Merge(once, b))
}

func TestMergeUnionOrderIndependent(t *testing.T) {
	t.Parallel()

	base := &ShipkeyConfig{Project: "p", Vault: "v"}
	b := scannedConfig()
	c := &ShipkeyConfig{
		Providers: map[string]ProviderConfig{"Resend": {Fields: []string{"RESEND_API_KEY"}}},
	}

	bc := Merge(Merge(base, b), c)
	cb := Merge(Merge(base, c), b)
	require.Equal(t, len(bc.Providers), len(cb.Providers))
	for name, p := range bc.Providers {
		assert.ElementsMatch(t, p.Fields, cb.Providers[name].Fields, name)
	}
}

func TestMergeNil(t *testing.T) {
	t.Parallel()

	x := existingConfig()
	assert.Equal(t, x, Merge(x, nil))
	assert.Equal(t, x, Merge(nil, x))
	assert.Nil(t, Merge(nil, nil))

	merged := Merge(x, scannedConfig())
	merged.Providers["OpenAI"].Fields[0] = "MUTATED"
	assert.Equal(t, "OPENAI_API_KEY", x.Providers["OpenAI"].Fields[0])
}
