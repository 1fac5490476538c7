package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/arborlabs/arbor/pkg/adapters/redis"
	"github.com/arborlabs/arbor/pkg/playback"
	"github.com/arborlabs/arbor/pkg/ports/tests"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Contract(t *testing.T) {
	store := redisadapter.NewFromClient(newTestClient(t))
	tests.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTLExpiresSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisadapter.NewFromClient(client, redisadapter.WithTTL(time.Second))
	ctx := context.Background()

	state := &playback.State{SceneID: "start", History: []string{"start"}}
	require.NoError(t, store.Save(ctx, "ephemeral", state))

	mr.FastForward(2 * time.Second)

	_, err := store.Load(ctx, "ephemeral")
	assert.ErrorIs(t, err, playback.ErrSessionNotFound)

	// List prunes expired sessions from the index.
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "ephemeral")
}

func TestRedisStore_CustomPrefixIsolation(t *testing.T) {
	client := newTestClient(t)
	a := redisadapter.NewFromClient(client, redisadapter.WithPrefix("a:"))
	b := redisadapter.NewFromClient(client, redisadapter.WithPrefix("b:"))
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "s", &playback.State{SceneID: "x", History: []string{"x"}}))

	_, err := b.Load(ctx, "s")
	assert.ErrorIs(t, err, playback.ErrSessionNotFound)
}
