package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for RedisStore.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is prepended to every user hash key (default: "loconomy:memory:").
	Prefix string
	// TTL expires a user's mapping after this long without writes (0 = never).
	TTL time.Duration
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

const defaultRedisPrefix = "loconomy:memory:"

// RedisStore keeps one Redis hash per user so several agent instances can
// share memory. Values are stored as JSON, so a value read back has the shape
// encoding/json produces (numbers as float64, slices as []any, and so on).
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, userID, key string, value any) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal memory value %q: %w", key, err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.userKey(userID), key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.userKey(userID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set memory: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID, key string) (any, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	data, err := s.client.HGet(ctx, s.userKey(userID), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get memory: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("unmarshal memory value %q: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) GetAll(ctx context.Context, userID string) (map[string]any, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	raw, err := s.client.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get all memory: %w", err)
	}

	out := make(map[string]any, len(raw))
	for k, data := range raw {
		var v any
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("unmarshal memory value %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.userKey(userID), key).Err(); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
