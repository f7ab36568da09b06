package drafts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wework:drafts:"

// RedisStore keeps drafts as one hash per visitor and form. Implements
// domain.DraftStore.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a draft store over an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreWithURL creates a draft store from a redis:// URL.
func NewRedisStoreWithURL(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), ttl), nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save replaces the draft for form and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, visitorID, form string, values map[string]string) error {
	key := formKey(visitorID, form)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.HSet(ctx, key, values)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.SAdd(ctx, indexKey(visitorID), form)
		if s.ttl > 0 {
			pipe.Expire(ctx, indexKey(visitorID), s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load returns the draft for form, or nil when there is none.
func (s *RedisStore) Load(ctx context.Context, visitorID, form string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, formKey(visitorID, form)).Result()
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// Purge drops every draft of the visitor.
func (s *RedisStore) Purge(ctx context.Context, visitorID string) error {
	forms, err := s.client.SMembers(ctx, indexKey(visitorID)).Result()
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}

	keys := make([]string, 0, len(forms)+1)
	for _, form := range forms {
		keys = append(keys, formKey(visitorID, form))
	}
	keys = append(keys, indexKey(visitorID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("purge drafts: %w", err)
	}
	return nil
}

func formKey(visitorID, form string) string {
	return keyPrefix + visitorID + ":" + form
}

func indexKey(visitorID string) string {
	return keyPrefix + visitorID
}
