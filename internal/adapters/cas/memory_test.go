package cas_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := cas.NewMemoryStore()
	key := testKey("a.kn")

	_, ok := s.Get(ctx, key)
	assert.False(t, ok)

	first, err := s.Put(ctx, key, []byte("object"), testSignature, 7)
	require.NoError(t, err)
	second, err := s.Put(ctx, key, []byte("object"), testSignature, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, domain.Hash(7), got.SignatureHash)

	data, ok := s.Artifact(key)
	require.True(t, ok)
	assert.Equal(t, "object", string(data))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheStats{Entries: 1, Blobs: 1, Bytes: 6}, stats)

	require.NoError(t, s.InvalidateProject(ctx))
	_, ok = s.Get(ctx, key)
	assert.False(t, ok)
	require.NoError(t, s.Close())
}
