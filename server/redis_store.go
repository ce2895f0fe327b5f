package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "gochain:session:"

// RedisStore keeps entries as JSON strings under prefix+sessionID with a
// TTL, so sessions are shared between server instances.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore wraps rdb. A ttl of zero keeps entries forever.
func NewRedisStore(rdb goredis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultKeyPrefix, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(rdb, ttl), nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Save(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis store marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(entry.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis store save: %w", err)
	}
	return nil
}

func (s *RedisStore) Last(ctx context.Context, sessionID string) (*Entry, error) {
	data, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("redis store unmarshal: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
