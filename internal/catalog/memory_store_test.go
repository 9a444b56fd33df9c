package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func setupStore(t *testing.T, products ...Product) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	for i := range products {
		require.NoError(t, store.SetStock(context.Background(), &products[i]))
	}
	return store
}

func product(id int64, stock int32) Product {
	return Product{
		ID:          id,
		Name:        "Widget",
		Price:       decimal.RequireFromString("10.00"),
		Stock:       stock,
		IsAvailable: true,
	}
}

func TestMemoryStore_GetProduct(t *testing.T) {
	store := setupStore(t, product(1, 100))

	p, err := store.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, int32(100), p.Stock)

	_, err = store.GetProduct(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMemoryStore_GetProduct_ReturnsCopy(t *testing.T) {
	store := setupStore(t, product(1, 100))

	p, err := store.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	p.Stock = 0

	again, err := store.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(100), again.Stock)
}

func TestMemoryStore_DecrementStock(t *testing.T) {
	store := setupStore(t, product(1, 10))
	ctx := context.Background()

	require.NoError(t, store.DecrementStock(ctx, 1, 4))

	p, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(6), p.Stock)
}

func TestMemoryStore_DecrementStock_Insufficient(t *testing.T) {
	store := setupStore(t, product(1, 3))
	ctx := context.Background()

	err := store.DecrementStock(ctx, 1, 5)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Failed decrement must not touch stock.
	p, getErr := store.GetProduct(ctx, 1)
	require.NoError(t, getErr)
	assert.Equal(t, int32(3), p.Stock)
}

func TestMemoryStore_DecrementStock_Unavailable(t *testing.T) {
	p := product(1, 10)
	p.IsAvailable = false
	store := setupStore(t, p)

	err := store.DecrementStock(context.Background(), 1, 1)
	require.ErrorIs(t, err, domain.ErrProductUnavailable)
}

func TestMemoryStore_DecrementStock_UnknownProduct(t *testing.T) {
	store := setupStore(t)

	err := store.DecrementStock(context.Background(), 7, 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMemoryStore_DecrementStock_InvalidQuantity(t *testing.T) {
	store := setupStore(t, product(1, 10))

	require.ErrorIs(t, store.DecrementStock(context.Background(), 1, 0), domain.ErrInvalidQuantity)
	require.ErrorIs(t, store.DecrementStock(context.Background(), 1, -2), domain.ErrInvalidQuantity)
}

func TestMemoryStore_RestockStock(t *testing.T) {
	store := setupStore(t, product(1, 1))
	ctx := context.Background()

	require.NoError(t, store.DecrementStock(ctx, 1, 1))
	require.NoError(t, store.RestockStock(ctx, 1, 1))

	p, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.Stock)
}

// N workers compete for the last unit: exactly one decrement may win and the
// final stock must never be negative.
func TestMemoryStore_DecrementStock_Contention(t *testing.T) {
	store := setupStore(t, product(1, 1))
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.DecrementStock(ctx, 1, 1)
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			conflicts++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	p, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.Stock)
}
