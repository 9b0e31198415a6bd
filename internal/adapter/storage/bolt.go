package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
	bolt "go.etcd.io/bbolt"
)

var _ port.CartStorage = (*BoltStorage)(nil)

var localStorageBucket = []byte("local_storage")

// A BoltStorage is the embedded key/value file that plays the role
// of the browser local storage.
type BoltStorage struct {
	db *bolt.DB
}

func NewBoltStorage(path string) (BoltStorage, error) {
	const op = "NewBoltStorage"
	log := slog.With("op", op)

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(localStorageBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("local storage is open", "path", path)
	return BoltStorage{db}, nil
}

func (s BoltStorage) LoadCart(
	ctx context.Context, key string,
) (c domain.Cart, err error) {
	const op = "BoltStorage.LoadCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(localStorageBucket).Get([]byte(key))
		if data == nil {
			return domain.ErrCartNotFound
		}
		c, err = decodeCart(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s BoltStorage) SaveCart(
	ctx context.Context, key string, c domain.Cart,
) error {
	const op = "BoltStorage.SaveCart"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := encodeCart(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(localStorageBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s BoltStorage) DeleteCart(ctx context.Context, key string) error {
	const op = "BoltStorage.DeleteCart"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(localStorageBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s BoltStorage) Close() {
	const op = "BoltStorage.Close"
	log := slog.With("op", op)

	log.Info("closing local storage...")
	if err := s.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("local storage is closed")
}
