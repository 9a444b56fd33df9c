package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds a user's pending line items. At most one item per product;
// duplicate adds merge into the existing line.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID         int64           `json:"product_id"`
	Quantity          int32           `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
	AddedAt           time.Time       `json:"added_at"`
}

// Find returns a pointer into Items for the given product, or nil.
func (c *Cart) Find(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartSnapshotItem is one priced line of a snapshot. Unit prices come from the
// catalog at snapshot time, not from the stale per-item snapshot taken on add.
type CartSnapshotItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartSnapshot is the immutable cart view checkout operates on.
type CartSnapshot struct {
	UserID     string             `json:"user_id"`
	Items      []CartSnapshotItem `json:"items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	TotalItems int32              `json:"total_items"`
	Currency   string             `json:"currency"`
	CapturedAt time.Time          `json:"captured_at"`
}
