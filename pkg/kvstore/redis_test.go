package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T) Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClient(client, "finflow")
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, newMiniRedisStore)
}

func TestRedisNamespace(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisWithClient(client, "invest")
	require.NoError(t, s.Put(ctx, "plans/1", []byte(`{}`)))

	assert.True(t, mr.Exists("invest:plans/1"))
	assert.False(t, mr.Exists("plans/1"))

	entries, err := s.List(ctx, "plans/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plans/1", entries[0].Key)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url", "")
	assert.Error(t, err)
}
