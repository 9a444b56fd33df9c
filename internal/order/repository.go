package order

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Repository defines persistence for orders. Orders are never deleted;
// terminal states are retained for history and reporting.
type Repository interface {
	// Create persists a new order, or ErrDuplicateOrder for a reused id.
	Create(ctx context.Context, o *domain.Order) error

	// GetByID returns the order, or domain.ErrOrderNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	// ListByUserID returns the user's orders, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error)

	// Update persists status, delivery stamp and timestamps of an existing order.
	Update(ctx context.Context, o *domain.Order) error
}
