package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"storefront/internal/domain"
)

func setupTestDB(t *testing.T) (Repository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)

	mongoRepo := repo.(*mongoRepository)
	err = mongoRepo.CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func cartFixture(userID string) *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{
				ProductID:         1,
				Quantity:          2,
				UnitPriceSnapshot: decimal.RequireFromString("19.90"),
				AddedAt:           now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMongoGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	c, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
	assert.Nil(t, c)
}

func TestMongoUpsertCart_InsertAndRead(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := repo.UpsertCart(ctx, cartFixture("user123"))
	require.NoError(t, err)

	c, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", c.UserID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(1), c.Items[0].ProductID)
	assert.Equal(t, int32(2), c.Items[0].Quantity)
	// Price survives the string round trip exactly.
	assert.True(t, c.Items[0].UnitPriceSnapshot.Equal(decimal.RequireFromString("19.90")))
}

func TestMongoUpsertCart_ReplacesItems(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := cartFixture("user123")
	require.NoError(t, repo.UpsertCart(ctx, first))

	second := cartFixture("user123")
	second.Items = []domain.CartItem{
		{
			ProductID:         2,
			Quantity:          7,
			UnitPriceSnapshot: decimal.RequireFromString("49.50"),
			AddedAt:           time.Now(),
		},
	}
	require.NoError(t, repo.UpsertCart(ctx, second))

	c, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].ProductID)
	assert.Equal(t, int32(7), c.Items[0].Quantity)
}

func TestMongoUpsertCart_EmptyItemsClearsCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.UpsertCart(ctx, cartFixture("user123")))

	cleared := cartFixture("user123")
	cleared.Items = []domain.CartItem{}
	require.NoError(t, repo.UpsertCart(ctx, cleared))

	c, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestMongoGetCart_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetCart(ctx, "user123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
