package rediskv_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/credentials/rediskv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisKV_RoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	kv := rediskv.New(client, "test")

	_, ok, err := kv.Get(credentials.AccessTokenKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(credentials.AccessTokenKey, "a1"))
	require.NoError(t, kv.Set(credentials.RefreshTokenKey, "r1"))
	require.Equal(t, "a1", mr.HGet("test:credentials", credentials.AccessTokenKey))

	v, ok, err := kv.Get(credentials.RefreshTokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r1", v)

	require.NoError(t, kv.Clear())
	require.False(t, mr.Exists("test:credentials"))
}

func TestRedisKV_StoreIntegration(t *testing.T) {
	_, client := newTestRedis(t)
	store := credentials.NewStore(rediskv.New(client, "store"))

	require.NoError(t, store.Set(credentials.Credential{AccessToken: "a1", RefreshToken: "r1"}))
	cred, ok, err := store.Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r1", cred.RefreshToken)
}

func TestRedisKV_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	store := credentials.NewStore(rediskv.New(client, "down"))
	mr.Close()

	_, _, err := store.Get()
	require.ErrorIs(t, err, credentials.ErrStorage)
}
