package search

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, DocumentStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisDocumentStore(client, "questions-idx")
}

func TestUpsert_VersionGate(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestStore(t)

	applied, err := store.Upsert(ctx, "q-1", 2, map[string]string{"title": "v2"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "v2", mr.HGet("search:question:q-1", "title"))
	assert.Equal(t, "2", mr.HGet("search:question:q-1", "version"))

	// Same version again: duplicate delivery, discarded.
	applied, err = store.Upsert(ctx, "q-1", 2, map[string]string{"title": "dup"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "v2", mr.HGet("search:question:q-1", "title"))

	// Older version: out-of-order delivery, discarded.
	applied, err = store.Upsert(ctx, "q-1", 1, map[string]string{"title": "v1"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "v2", mr.HGet("search:question:q-1", "title"))

	// Newer version wins.
	applied, err = store.Upsert(ctx, "q-1", 3, map[string]string{"title": "v3"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "v3", mr.HGet("search:question:q-1", "title"))
}

func TestDelete_TombstoneBlocksStaleUpserts(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestStore(t)

	applied, err := store.Upsert(ctx, "q-1", 1, map[string]string{"title": "t"})
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = store.Delete(ctx, "q-1", 3)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, mr.Exists("search:question:q-1"))
	assert.True(t, mr.Exists("search:tombstone:q-1"))
	assert.Greater(t, mr.TTL("search:tombstone:q-1").Seconds(), 0.0)

	// A retried update that raced the delete must not resurrect the document.
	applied, err = store.Upsert(ctx, "q-1", 2, map[string]string{"title": "late"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, mr.Exists("search:question:q-1"))
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestStore(t)

	applied, err := store.Delete(ctx, "q-1", 2)
	require.NoError(t, err)
	assert.True(t, applied)

	// Redelivery of the same delete is a no-op.
	applied, err = store.Delete(ctx, "q-1", 2)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, mr.Exists("search:question:q-1"))
}
