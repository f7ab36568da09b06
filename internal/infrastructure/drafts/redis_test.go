package drafts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t, time.Hour)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Save(ctx, "v-1", "signup", map[string]string{
		"email":      "ada@example.com",
		"first_name": "Ada",
	}))

	got, err := s.Load(ctx, "v-1", "signup")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "ada@example.com", "first_name": "Ada"}, got)
}

func TestRedisStore_SaveReplacesPreviousDraft(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "v-1", "signup", map[string]string{"email": "a@example.com", "first_name": "Ada"}))
	require.NoError(t, s.Save(ctx, "v-1", "signup", map[string]string{"email": "b@example.com"}))

	got, err := s.Load(ctx, "v-1", "signup")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "b@example.com"}, got)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)

	got, err := s.Load(context.Background(), "unknown", "signup")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Purge(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "v-1", "signup", map[string]string{"email": "a@example.com"}))
	require.NoError(t, s.Save(ctx, "v-1", "company_signup", map[string]string{"company_name": "Acme"}))
	require.NoError(t, s.Save(ctx, "v-2", "signup", map[string]string{"email": "b@example.com"}))

	require.NoError(t, s.Purge(ctx, "v-1"))

	assert.False(t, mr.Exists(formKey("v-1", "signup")))
	assert.False(t, mr.Exists(formKey("v-1", "company_signup")))
	assert.False(t, mr.Exists(indexKey("v-1")))
	assert.True(t, mr.Exists(formKey("v-2", "signup")))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)

	require.NoError(t, s.Save(ctx, "v-1", "signup", map[string]string{"email": "a@example.com"}))
	assert.Equal(t, time.Minute, mr.TTL(formKey("v-1", "signup")))

	mr.FastForward(2 * time.Minute)

	got, err := s.Load(ctx, "v-1", "signup")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisStoreWithURL_Invalid(t *testing.T) {
	_, err := NewRedisStoreWithURL("not-a-url", time.Minute)
	assert.Error(t, err)
}
