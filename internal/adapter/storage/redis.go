package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.CartStorage = (*RedisStorage)(nil)

type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects to the redis url, e.g. redis://localhost:6379/0.
// Keys are stored with the prefix.
func NewRedisStorage(
	ctx context.Context, url, prefix string,
) (RedisStorage, error) {
	const op = "NewRedisStorage"
	log := slog.With("op", op)

	opt, err := redis.ParseURL(url)
	if err != nil {
		return RedisStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	client := redis.NewClient(opt)
	err = pingWithRetry(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return RedisStorage{}, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}

	log.Info("redis is available")
	return RedisStorage{client: client, prefix: prefix}, nil
}

func (s RedisStorage) LoadCart(
	ctx context.Context, key string,
) (domain.Cart, error) {
	const op = "RedisStorage.LoadCart"

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrCartNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := decodeCart(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s RedisStorage) SaveCart(
	ctx context.Context, key string, c domain.Cart,
) error {
	const op = "RedisStorage.SaveCart"

	data, err := encodeCart(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s RedisStorage) DeleteCart(ctx context.Context, key string) error {
	const op = "RedisStorage.DeleteCart"

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s RedisStorage) Close() {
	const op = "RedisStorage.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := s.client.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}
