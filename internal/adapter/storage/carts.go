package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
)

var _ port.CartStorage = (*CartsRepository)(nil)

// A CartsRepository keeps carts in the carts table, one row per key.
type CartsRepository struct {
	sqldb sqldb
}

func NewCartsRepository(sqldb sqldb) CartsRepository {
	return CartsRepository{sqldb}
}

func (r CartsRepository) SaveCart(
	ctx context.Context, key string, c domain.Cart,
) (storeErr error) {
	const op = "CartsRepository.SaveCart"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := encodeCart(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO carts (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at;
	`

	_, err = tx.ExecContext(ctx, query, key, string(data))
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}

	return nil
}

func (r CartsRepository) LoadCart(
	ctx context.Context, key string,
) (domain.Cart, error) {
	const op = "CartsRepository.LoadCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT data FROM carts WHERE key = $1;`

	var data string
	err := r.sqldb.QueryRowContext(ctx, query, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrCartNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := decodeCart([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (r CartsRepository) DeleteCart(ctx context.Context, key string) error {
	const op = "CartsRepository.DeleteCart"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := r.sqldb.ExecContext(ctx, `DELETE FROM carts WHERE key = $1;`, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
