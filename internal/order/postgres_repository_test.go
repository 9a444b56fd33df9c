package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/internal/domain"
)

func setupTestDB(t *testing.T) (*PostgresRepository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:               uuid.New(),
		UserID:           "user-123",
		OrderDate:        now,
		Status:           domain.OrderStatusPending,
		TotalAmount:      decimal.RequireFromString("99.99"),
		DiscountApplied:  decimal.RequireFromString("5.00"),
		Currency:         "USD",
		DeliveryMethodID: "courier",
		PaymentMethodID:  "card",
		PaymentTxID:      "TXN-1",
		Items: []domain.OrderItem{
			{
				ProductID:   1,
				ProductName: "Laptop",
				Quantity:    1,
				UnitPrice:   decimal.RequireFromString("99.99"),
				Subtotal:    decimal.RequireFromString("99.99"),
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := newTestOrder()
	require.NoError(t, repo.Create(ctx, o))

	fetched, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, fetched.ID)
	assert.Equal(t, o.UserID, fetched.UserID)
	assert.Equal(t, o.Status, fetched.Status)
	assert.True(t, fetched.TotalAmount.Equal(o.TotalAmount))
	assert.True(t, fetched.DiscountApplied.Equal(o.DiscountApplied))
	assert.Equal(t, o.Currency, fetched.Currency)
	assert.Equal(t, o.PaymentTxID, fetched.PaymentTxID)
	assert.Nil(t, fetched.ActualDeliveryDate)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, o.Items[0].ProductID, fetched.Items[0].ProductID)
	assert.True(t, fetched.Items[0].UnitPrice.Equal(o.Items[0].UnitPrice))
}

func TestPostgresCreateOrder_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := newTestOrder()
	require.NoError(t, repo.Create(ctx, o))

	err := repo.Create(ctx, o)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestPostgresListByUserID_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := newTestOrder()
	require.NoError(t, repo.Create(ctx, first))
	time.Sleep(20 * time.Millisecond) // created_at comes from NOW()
	second := newTestOrder()
	require.NoError(t, repo.Create(ctx, second))

	other := newTestOrder()
	other.UserID = "someone-else"
	require.NoError(t, repo.Create(ctx, other))

	list, err := repo.ListByUserID(ctx, "user-123")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestPostgresUpdate_StatusAndDelivery(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := newTestOrder()
	require.NoError(t, repo.Create(ctx, o))

	delivered := time.Now().UTC().Truncate(time.Microsecond)
	o.Status = domain.OrderStatusDelivered
	o.ActualDeliveryDate = &delivered
	require.NoError(t, repo.Update(ctx, o))

	fetched, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, fetched.Status)
	require.NotNil(t, fetched.ActualDeliveryDate)
	assert.True(t, fetched.ActualDeliveryDate.Equal(delivered))
}

func TestPostgresUpdate_UnknownOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	o := newTestOrder()
	err := repo.Update(context.Background(), o)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
