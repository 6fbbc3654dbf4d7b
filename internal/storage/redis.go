package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// Redis keeps the storage area in one Redis hash.
type Redis struct {
	client *redis.Client
	hash   string
}

// NewRedis connects and pings the server.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if opts.Prefix == "" {
		opts.Prefix = "pagebrief"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, hash: opts.Prefix + ":storage:local"}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, keys []string) (map[string]any, error) {
	out := make(map[string]any, len(keys))

	if keys == nil {
		all, err := r.client.HGetAll(ctx, r.hash).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get values: %w", err)
		}
		for k, raw := range all {
			v, err := decode([]byte(raw))
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := r.client.HMGet(ctx, r.hash, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}
	for i, val := range vals {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		v, err := decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keys[i], err)
		}
		out[keys[i]] = v
	}
	return out, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, items map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	fields := make([]any, 0, len(items)*2)
	for k, v := range items {
		raw, err := encode(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		fields = append(fields, k, raw)
	}
	if err := r.client.HSet(ctx, r.hash, fields...).Err(); err != nil {
		return fmt.Errorf("failed to set values: %w", err)
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.HDel(ctx, r.hash, keys...).Err()
}

// Clear implements Store.
func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.hash).Err()
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
