package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := Memory(10 * time.Minute)
	require.NoError(t, err)
	defer store.Close()

	token := "abc123"

	_, found, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.False(t, found, "token should not exist before save")

	require.NoError(t, store.Save(ctx, token, "42", time.Minute))
	key, found, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "42", key)

	require.NoError(t, store.Delete(ctx, token))
	_, found, err = store.Lookup(ctx, token)
	require.NoError(t, err)
	require.False(t, found, "token should be gone after delete")

	require.NoError(t, store.Delete(ctx, token), "deleting twice is not an error")
	require.Error(t, store.Save(ctx, "", "42", time.Minute))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := Memory(time.Hour)
	require.NoError(t, err)
	defer store.Close()

	clock := time.Date(2022, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, "short", "1", time.Minute))
	require.NoError(t, store.Save(ctx, "long", "2", 48*time.Hour))
	require.NoError(t, store.Save(ctx, "default", "3", 0))

	clock = clock.Add(59 * time.Second)
	key, found, err := store.Lookup(ctx, "short")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1", key)

	clock = clock.Add(time.Second)
	_, found, err = store.Lookup(ctx, "short")
	require.NoError(t, err)
	require.False(t, found, "session must expire after its ttl")

	clock = clock.Add(time.Hour)
	for _, token := range []string{"long", "default"} {
		_, found, err = store.Lookup(ctx, token)
		require.NoError(t, err)
		require.False(t, found, "%v should be capped by the store ttl", token)
	}

	_, err = Memory(0)
	require.Error(t, err)
}
