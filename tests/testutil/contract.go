// This file implements the backend contract suite: behaviour every
// backend.Backend must show regardless of the store behind it.

package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipkey/shipkey/pkg/backend"
)

// BackendTestCase is a backend under test and the data it already holds.
type BackendTestCase struct {
	// Name is a descriptive name for the test case
	Name string

	Backend backend.Backend

	// Seeded entries must already be readable from Backend
	Seeded []backend.SecretEntry

	// Missing is a ref the backend does not hold
	Missing backend.SecretRef

	// ReadOnly skips the write round-trip
	ReadOnly bool

	// SkipConcurrency skips parallel reads
	SkipConcurrency bool
}

// RunBackendContractTests runs the contract suite against tc.Backend.
//
//	testutil.RunBackendContractTests(t, testutil.BackendTestCase{
//	    Name:    "fake",
//	    Backend: store,
//	    Seeded:  entries,
//	    Missing: missingRef,
//	})
func RunBackendContractTests(t *testing.T, tc BackendTestCase) {
	t.Helper()

	require.NotNil(t, tc.Backend, "Backend cannot be nil")
	require.NotEmpty(t, tc.Name, "Test case name cannot be empty")
	require.NotEmpty(t, tc.Seeded, "Seeded must contain at least one entry")

	t.Run("Name", func(t *testing.T) { testBackendName(t, tc) })
	t.Run("Status", func(t *testing.T) { testBackendStatus(t, tc) })
	t.Run("Read", func(t *testing.T) { testBackendRead(t, tc) })
	t.Run("List", func(t *testing.T) { testBackendList(t, tc) })
	t.Run("ErrorHandling", func(t *testing.T) { testBackendErrors(t, tc) })
	if !tc.ReadOnly {
		t.Run("WriteRoundTrip", func(t *testing.T) { testBackendWrite(t, tc) })
	}
	if !tc.SkipConcurrency {
		t.Run("Concurrency", func(t *testing.T) { testBackendConcurrency(t, tc) })
	}
}

func testBackendName(t *testing.T, tc BackendTestCase) {
	t.Helper()

	name := tc.Backend.Name()
	assert.NotEmpty(t, name)
	assert.Equal(t, name, tc.Backend.Name(), "Name() must be stable")
	assert.Regexp(t, `^[a-z][a-z0-9_-]*$`, name, "backend names are lowercase")
	assert.NotEmpty(t, tc.Backend.InstallHint())
}

func testBackendStatus(t *testing.T, tc BackendTestCase) {
	t.Helper()

	assert.Equal(t, backend.StatusReady, tc.Backend.CheckStatus(context.Background()))
	assert.True(t, backend.IsAvailable(context.Background(), tc.Backend))
}

func testBackendRead(t *testing.T, tc BackendTestCase) {
	t.Helper()

	for _, entry := range tc.Seeded {
		t.Run(entry.Ref.Field, func(t *testing.T) {
			v, err := tc.Backend.Read(context.Background(), entry.Ref)
			require.NoError(t, err)
			assert.Equal(t, entry.Value, v)
		})
	}
}

func testBackendList(t *testing.T, tc BackendTestCase) {
	t.Helper()

	for _, entry := range tc.Seeded {
		filter := backend.ListFilter{Project: entry.Ref.Project, Env: entry.Ref.Env}
		refs, err := tc.Backend.List(context.Background(), entry.Ref.Vault, filter)
		require.NoError(t, err)
		assert.Contains(t, refs, entry.Ref)
		for _, ref := range refs {
			assert.True(t, filter.Matches(ref), "List returned %s outside %+v", ref.String(), filter)
		}
	}
}

func testBackendErrors(t *testing.T, tc BackendTestCase) {
	t.Helper()

	t.Run("missing secret", func(t *testing.T) {
		_, err := tc.Backend.Read(context.Background(), tc.Missing)
		require.Error(t, err)
		assert.ErrorIs(t, err, backend.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tc.Backend.Read(ctx, tc.Seeded[0].Ref)
		assert.Error(t, err)
	})
}

func testBackendWrite(t *testing.T, tc BackendTestCase) {
	t.Helper()

	ref := tc.Seeded[0].Ref
	ref.Field = "CONTRACT_WRITE_CHECK"
	require.NoError(t, tc.Backend.Write(context.Background(), backend.SecretEntry{Ref: ref, Value: "first"}))
	require.NoError(t, tc.Backend.Write(context.Background(), backend.SecretEntry{Ref: ref, Value: "second"}))

	v, err := tc.Backend.Read(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "second", v, "the last write wins")

	incomplete := ref
	incomplete.Project = ""
	assert.Error(t, tc.Backend.Write(context.Background(), backend.SecretEntry{Ref: incomplete, Value: "x"}))
}

func testBackendConcurrency(t *testing.T, tc BackendTestCase) {
	t.Helper()

	const concurrency = 50
	entry := tc.Seeded[0]
	errs := make(chan error, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v, err := tc.Backend.Read(context.Background(), entry.Ref)
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: Read failed: %w", id, err)
				return
			}
			if v != entry.Value {
				errs <- fmt.Errorf("goroutine %d: got %q, want %q", id, v, entry.Value)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
