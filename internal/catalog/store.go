package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the read-only catalog view the core consumes.
type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Stock       int32
	IsAvailable bool
}

// Store defines the catalog operations the core consumes. DecrementStock must
// be atomically checked: it succeeds only when current stock covers the
// requested quantity, so two concurrent checkouts can never drive stock
// negative. RestockStock is the compensating action.
type Store interface {
	// GetProduct returns the product, or domain.ErrProductNotFound.
	GetProduct(ctx context.Context, productID int64) (*Product, error)

	// DecrementStock reduces stock by qty if current stock >= qty.
	// Returns domain.ErrInsufficientStock when it does not, and
	// domain.ErrProductUnavailable when the product is inactive.
	DecrementStock(ctx context.Context, productID int64, qty int32) error

	// RestockStock returns qty units to the product's stock.
	RestockStock(ctx context.Context, productID int64, qty int32) error

	// SetStock sets the stock level for a product (used for initialization).
	SetStock(ctx context.Context, product *Product) error
}
