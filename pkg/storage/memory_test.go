package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseAdapter runs the shared Adapter contract against a.
func exerciseAdapter(t *testing.T, a Adapter) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := a.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report ok=false")

	require.NoError(t, a.Set(ctx, "count", []byte("3")))
	got, ok, err := a.Get(ctx, "count")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(got))

	require.NoError(t, a.Set(ctx, "count", []byte("4")))
	got, _, _ = a.Get(ctx, "count")
	assert.Equal(t, "4", string(got))

	require.NoError(t, a.Set(ctx, "user/name", []byte(`"ada"`)))
	keys, listed, err := Keys(ctx, a)
	require.NoError(t, err)
	if listed {
		assert.Equal(t, []string{"count", "user/name"}, keys)
	}

	require.NoError(t, a.Delete(ctx, "count"))
	_, ok, err = a.Get(ctx, "count")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Delete(ctx, "never-there"), "deleting an absent key is not an error")
}

func TestMemoryAdapterContract(t *testing.T) {
	exerciseAdapter(t, NewMemoryAdapter())
}

func TestMemoryAdapterCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, m.Len())
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

type opaque struct{ Adapter }

func TestKeysUnsupported(t *testing.T) {
	keys, ok, err := Keys(context.Background(), opaque{NewMemoryAdapter()})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, keys)
}
