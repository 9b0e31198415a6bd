package storage

import (
	"path/filepath"
	"testing"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestCartCodec(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		c := domain.Cart{"ssr-gt-f01-17-44": 4, "rays-te37-17-35": 1}

		data, err := encodeCart(c)
		require.NoError(t, err)

		decoded, err := decodeCart(data)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	})

	t.Run("NilCart", func(t *testing.T) {
		data, err := encodeCart(nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	})

	t.Run("Null", func(t *testing.T) {
		c, err := decodeCart([]byte("null"))
		require.NoError(t, err)
		assert.Equal(t, domain.Cart{}, c)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, data := range []string{`{`, `[]`, `{"a": "two"}`, `{"a": 1.5}`} {
			_, err := decodeCart([]byte(data))
			assert.ErrorIs(t, err, domain.ErrMalformedCart, data)
		}
	})
}

func newTestBolt(t *testing.T) BoltStorage {
	t.Helper()
	s, err := NewBoltStorage(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestBoltStorage(t *testing.T) {
	ctx := t.Context()

	t.Run("NotFound", func(t *testing.T) {
		s := newTestBolt(t)
		_, err := s.LoadCart(ctx, domain.DefaultCartKey)
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("SaveLoad", func(t *testing.T) {
		s := newTestBolt(t)
		c := domain.Cart{"a": 2, "b": 1}

		require.NoError(t, s.SaveCart(ctx, domain.DefaultCartKey, c))

		loaded, err := s.LoadCart(ctx, domain.DefaultCartKey)
		require.NoError(t, err)
		assert.Equal(t, c, loaded)

		require.NoError(t, s.SaveCart(ctx, domain.DefaultCartKey, c))
		again, err := s.LoadCart(ctx, domain.DefaultCartKey)
		require.NoError(t, err)
		assert.Equal(t, loaded, again)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		s := newTestBolt(t)
		require.NoError(t, s.SaveCart(ctx, "cart:one", domain.Cart{"a": 1}))

		_, err := s.LoadCart(ctx, "cart:two")
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("Malformed", func(t *testing.T) {
		s := newTestBolt(t)
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(localStorageBucket).Put(
				[]byte(domain.DefaultCartKey), []byte("not json"),
			)
		})
		require.NoError(t, err)

		_, err = s.LoadCart(ctx, domain.DefaultCartKey)
		assert.ErrorIs(t, err, domain.ErrMalformedCart)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newTestBolt(t)
		require.NoError(t, s.SaveCart(ctx, domain.DefaultCartKey, domain.Cart{"a": 1}))
		require.NoError(t, s.DeleteCart(ctx, domain.DefaultCartKey))

		_, err := s.LoadCart(ctx, domain.DefaultCartKey)
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
	})
}

func TestNewRedisStorageInvalidURL(t *testing.T) {
	_, err := NewRedisStorage(t.Context(), "mysql://localhost:3306", "shop:")
	assert.Error(t, err)
}

func TestNewSQLDBInvalidDSN(t *testing.T) {
	_, err := NewSQLDB(t.Context(), "postgres://shop@localhost:notaport/shop")
	assert.ErrorContains(t, err, "invalid dsn")
}
