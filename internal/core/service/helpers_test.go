package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/niksmo/wheels-shop/internal/adapter/catalog"
	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
products:
  - id: te37
    name: RAYS TE37
    brand: RAYS
    model: TE37
    price: 45000
    specs: {diameter: ["17"], width: "8.0", pcd: 5x114.3, et: ["35"]}
    variants:
      - {id: te37-17-35, diameter: "17", et: "35", price: 45000, stock: 4}
  - id: gt-f01
    name: SSR GT F01
    brand: SSR
    model: GT F01
    price: 25000
    specs: {diameter: ["17", "18"], width: "7.5", pcd: 5x114.3, et: ["44"]}
    variants:
      - {id: gt-f01-17-44, diameter: "17", et: "44", price: 25000, stock: 2}
      - {id: gt-f01-18-44, diameter: "18", et: "44", price: 27000, stock: 1}
  - id: sold-out
    name: WORK Emotion
    brand: WORK
    model: Emotion
    price: 32000
    specs: {diameter: ["18"], width: "8.5", pcd: 5x100, et: ["38"]}
    variants:
      - {id: sold-out-18-38, diameter: "18", et: "38", price: 32000, stock: 0}
reviews:
  - {id: 1, product_id: te37, model: TE37, author: A, rating: 5, date: 2024-03-15T00:00:00Z, text: great}
  - {id: 2, product_id: te37, model: TE37, author: B, rating: 3, date: 2024-03-14T00:00:00Z, text: fine}
  - {id: 3, product_id: gt-f01, model: GT F01, author: C, rating: 4, date: 2024-03-16T00:00:00Z, text: good}
orders:
  - {number: "12345", product_id: gt-f01, model: GT F01, name: SSR GT F01, date: 2024-03-15T00:00:00Z}
`

func newTestCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

var errStorage = errors.New("storage is unavailable")

// memStorage keeps raw JSON documents the way a local storage does.
type memStorage struct {
	mu       sync.Mutex
	carts    map[string]domain.Cart
	failSave bool
	loadErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{carts: make(map[string]domain.Cart)}
}

func (s *memStorage) LoadCart(_ context.Context, key string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	c, ok := s.carts[key]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (s *memStorage) SaveCart(_ context.Context, key string, c domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStorage
	}
	s.carts[key] = c.Clone()
	return nil
}

func (s *memStorage) DeleteCart(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}

func (s *memStorage) stored(key string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[key].Clone()
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.carts[key]
	return ok
}

func (s *memStorage) setFailSave(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = v
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartEvent(evt domain.CartEvent) {
	m.Called(evt)
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (p *blockingPublisher) PublishCartEvent(domain.CartEvent) {
	p.entered <- struct{}{}
	<-p.release
}
