package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for the catalog
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key the store writes
	Prefix string
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "schemacraft:",
	}
}

// RedisStore keeps each entry as a JSON value under prefix+"schema:"+name
// and tracks published names in the prefix+"names" set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStoreWithConfig connects to Redis and verifies the connection
func NewRedisStoreWithConfig(config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisStoreWithClient(client, config.Prefix), nil
}

// NewRedisStoreWithClient creates a store over an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) entryKey(name string) string {
	return r.prefix + "schema:" + name
}

func (r *RedisStore) namesKey() string {
	return r.prefix + "names"
}

func (r *RedisStore) Put(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode schema %s: %w", e.Name, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(e.Name), data, 0)
		pipe.SAdd(ctx, r.namesKey(), e.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store schema %s: %w", e.Name, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, name string) (*Entry, error) {
	data, err := r.client.Get(ctx, r.entryKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schema %s: %w", name, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", name, err)
	}
	return &e, nil
}

// List returns all entries sorted by name. Names whose value has gone
// missing are skipped.
func (r *RedisStore) List(ctx context.Context) ([]*Entry, error) {
	names, err := r.client.SMembers(ctx, r.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	sort.Strings(names)

	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		e, err := r.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.entryKey(name))
		pipe.SRem(ctx, r.namesKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete schema %s: %w", name, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
