package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository defines the persistence operations the cart service needs.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	// GetCart returns the user's cart, or domain.ErrCartNotFound.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// UpsertCart saves the full cart document keyed by user id. Clearing a
	// cart is an upsert with no items; carts are never deleted.
	UpsertCart(ctx context.Context, cart *domain.Cart) error
}
