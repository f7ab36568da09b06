package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wework-hub/internal/domain"
)

const keyPrefix = "wework:cookies:"

// RedisStore keeps one hash per visitor, cookie key to JSON record.
// Implements domain.CookieStore.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a cookie store over an existing client. The hash
// expires ttl after its last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// NewRedisStoreWithURL creates a cookie store from a redis:// URL.
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

// Load returns the visitor's unexpired cookies and restarts the jar's
// expiry. Undecodable records are skipped.
func (s *RedisStore) Load(ctx context.Context, visitorID string) ([]domain.StoredCookie, error) {
	key := jarKey(visitorID)
	pipe := s.client.TxPipeline()
	all := pipe.HGetAll(ctx, key)
	if s.ttl > 0 {
		// EXPIRE on a missing key is a no-op.
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	records := all.Val()

	now := s.now()
	out := make([]domain.StoredCookie, 0, len(records))
	for _, raw := range records {
		var c domain.StoredCookie
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			continue
		}
		if !c.Expires.IsZero() && now.After(c.Expires) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Put stores c and refreshes the jar's expiry.
func (s *RedisStore) Put(ctx context.Context, visitorID string, c domain.StoredCookie) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cookie: %w", err)
	}

	key := jarKey(visitorID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, c.Key(), raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store cookie: %w", err)
	}
	return nil
}

// Delete removes one cookie.
func (s *RedisStore) Delete(ctx context.Context, visitorID, key string) error {
	if err := s.client.HDel(ctx, jarKey(visitorID), key).Err(); err != nil {
		return fmt.Errorf("delete cookie: %w", err)
	}
	return nil
}

// Clear drops every cookie of the visitor.
func (s *RedisStore) Clear(ctx context.Context, visitorID string) error {
	if err := s.client.Del(ctx, jarKey(visitorID)).Err(); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

// Touch restarts the jar's expiry.
func (s *RedisStore) Touch(ctx context.Context, visitorID string) error {
	if s.ttl <= 0 {
		return nil
	}
	if err := s.client.Expire(ctx, jarKey(visitorID), s.ttl).Err(); err != nil {
		return fmt.Errorf("touch cookies: %w", err)
	}
	return nil
}

func jarKey(visitorID string) string {
	return keyPrefix + visitorID
}
