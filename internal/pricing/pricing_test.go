package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func snapshot(items ...domain.CartSnapshotItem) *domain.CartSnapshot {
	return &domain.CartSnapshot{
		UserID:     "user-1",
		Items:      items,
		Currency:   "USD",
		CapturedAt: time.Now(),
	}
}

func line(productID int64, qty int32, unitPrice string) domain.CartSnapshotItem {
	return domain.CartSnapshotItem{
		ProductID:   productID,
		ProductName: "Widget",
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(unitPrice),
	}
}

func TestCompute_NoDiscount(t *testing.T) {
	q, err := Compute(snapshot(line(1, 2, "10.00")), Discount{})
	require.NoError(t, err)

	assert.Equal(t, "20", q.Subtotal.String())
	assert.Equal(t, "20", q.Total.String())
	assert.True(t, q.DiscountApplied.IsZero())
	assert.Equal(t, "20", q.Lines[0].Subtotal.String())
}

func TestCompute_MultipleLines(t *testing.T) {
	q, err := Compute(snapshot(
		line(1, 3, "19.90"),
		line(2, 1, "0.05"),
	), Discount{})
	require.NoError(t, err)

	assert.Equal(t, "59.7", q.Lines[0].Subtotal.String())
	assert.Equal(t, "0.05", q.Lines[1].Subtotal.String())
	assert.Equal(t, "59.75", q.Total.String())
}

func TestCompute_FlatDiscount(t *testing.T) {
	q, err := Compute(snapshot(line(1, 2, "10.00")), Discount{
		Kind:  DiscountFlat,
		Value: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "15", q.Total.String())
	assert.Equal(t, "5", q.DiscountApplied.String())
}

func TestCompute_PercentDiscount(t *testing.T) {
	q, err := Compute(snapshot(line(1, 2, "10.00")), Discount{
		Kind:  DiscountPercent,
		Value: decimal.RequireFromString("0.25"),
	})
	require.NoError(t, err)

	assert.Equal(t, "15", q.Total.String())
	assert.Equal(t, "5", q.DiscountApplied.String())
}

// 15% of 10.03 is 1.5045; half up at the minor unit gives 1.50, not 1.51.
func TestCompute_PercentDiscount_RoundsHalfUp(t *testing.T) {
	q, err := Compute(snapshot(line(1, 1, "10.03")), Discount{
		Kind:  DiscountPercent,
		Value: decimal.RequireFromString("0.15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.5", q.DiscountApplied.String())
	assert.Equal(t, "8.53", q.Total.String())

	// 15% of 10.30 is 1.545: the half cent rounds up.
	q, err = Compute(snapshot(line(1, 1, "10.30")), Discount{
		Kind:  DiscountPercent,
		Value: decimal.RequireFromString("0.15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.55", q.DiscountApplied.String())
	assert.Equal(t, "8.75", q.Total.String())
}

func TestCompute_FullPercentDiscount_ZeroTotal(t *testing.T) {
	q, err := Compute(snapshot(line(1, 2, "10.00")), Discount{
		Kind:  DiscountPercent,
		Value: decimal.RequireFromString("1"),
	})
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
}

func TestCompute_InvalidDiscounts(t *testing.T) {
	snap := snapshot(line(1, 2, "10.00")) // total 20.00

	cases := []struct {
		name     string
		discount Discount
	}{
		{"flat exceeds total", Discount{DiscountFlat, decimal.RequireFromString("25.00")}},
		{"negative flat", Discount{DiscountFlat, decimal.RequireFromString("-1")}},
		{"percent above one", Discount{DiscountPercent, decimal.RequireFromString("1.01")}},
		{"negative percent", Discount{DiscountPercent, decimal.RequireFromString("-0.1")}},
		{"unknown kind", Discount{DiscountKind("coupon"), decimal.RequireFromString("1")}},
		{"value without kind", Discount{DiscountNone, decimal.RequireFromString("5")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(snap, tc.discount)
			require.ErrorIs(t, err, domain.ErrInvalidDiscount)
		})
	}
}

// A thousand cent-level lines must sum exactly; binary floats would drift here.
func TestCompute_NoDriftAcrossRepeatedCents(t *testing.T) {
	items := make([]domain.CartSnapshotItem, 1000)
	for i := range items {
		items[i] = line(int64(i+1), 1, "0.01")
	}

	q, err := Compute(snapshot(items...), Discount{})
	require.NoError(t, err)
	assert.Equal(t, "10", q.Total.String())
}
