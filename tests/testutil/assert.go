package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipkey/shipkey/internal/dotenv"
)

// AssertNoSecretLeak verifies that none of secrets appear in output.
func AssertNoSecretLeak(t *testing.T, output string, secrets []string) {
	t.Helper()

	for _, secret := range secrets {
		assert.NotContains(t, output, secret,
			"Secret %q should never appear, but does in output", secret)
	}
}

// AssertEnvFile parses the env file at path and checks that it holds every
// pair in expected. Other keys are ignored.
func AssertEnvFile(t *testing.T, path string, expected map[string]string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read env file %s", path)

	got := dotenv.ToMap(dotenv.Parse(string(data)))
	for key, want := range expected {
		v, ok := got[key]
		if assert.True(t, ok, "Env file %s should define %s", path, key) {
			assert.Equal(t, want, v, "Value of %s in %s", key, path)
		}
	}
}

// AssertErrorContains verifies that err is non-nil and mentions substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()

	if assert.Error(t, err, "Expected an error to occur") {
		assert.Contains(t, err.Error(), substr, "Error message should contain %q", substr)
	}
}
