package secure

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureBufferString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"api key", "sk-live-abc123"},
		{"empty", ""},
		{"binary", string([]byte{0x00, 0xFF, 0x10})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := NewSecureBuffer([]byte(tt.data))
			require.NoError(t, err)
			defer buf.Destroy()

			for i := 0; i < 2; i++ {
				got, err := buf.String()
				require.NoError(t, err)
				assert.Equal(t, tt.data, got)
			}
		})
	}
}

func TestSecureBufferDestroy(t *testing.T) {
	t.Parallel()

	buf, err := NewSecureBuffer([]byte("secret"))
	require.NoError(t, err)

	buf.Destroy()
	buf.Destroy()

	got, err := buf.String()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValues(t *testing.T) {
	t.Parallel()

	v := NewValues()
	require.NoError(t, v.Put("B", "two"))
	require.NoError(t, v.Put("A", "one"))
	require.NoError(t, v.Put("B", "deux"))

	assert.Equal(t, []string{"A", "B"}, v.Names())
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.Has("A"))

	got, err := v.Get("B")
	require.NoError(t, err)
	assert.Equal(t, "deux", got)

	_, err = v.Get("C")
	assert.Error(t, err)

	v.Destroy()
	assert.Zero(t, v.Len())
	assert.False(t, v.Has("A"))
}

func TestValuesConcurrentPut(t *testing.T) {
	t.Parallel()

	v := NewValues()
	defer v.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('A' + i))
			assert.NoError(t, v.Put(name, name))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, v.Len())
	got, err := v.Get("C")
	require.NoError(t, err)
	assert.Equal(t, "C", got)
}
