// Package pricing computes order totals from a cart snapshot. Everything is
// shopspring decimal; binary floats drift at cent level over repeated adds.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// minorUnit is the number of decimal places of the currency.
const minorUnit = 2

type DiscountKind string

const (
	DiscountNone    DiscountKind = ""
	DiscountPercent DiscountKind = "percent" // Value is a fraction in [0, 1]
	DiscountFlat    DiscountKind = "flat"    // Value is an absolute amount
)

type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// Quote is the priced result of a snapshot plus discount.
type Quote struct {
	Lines           []domain.CartSnapshotItem
	Subtotal        decimal.Decimal
	DiscountApplied decimal.Decimal
	Total           decimal.Decimal
}

// Compute prices the snapshot. The discount applies to the aggregate total
// only, never per line, and is rounded half up to the minor unit. A discount
// that would drive the total below zero is rejected before any side effect.
func Compute(snapshot *domain.CartSnapshot, discount Discount) (*Quote, error) {
	subtotal := decimal.Zero
	lines := make([]domain.CartSnapshotItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		line := item
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity))
		lines[i] = line
		subtotal = subtotal.Add(line.Subtotal)
	}

	applied, err := discountAmount(discount, subtotal)
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(applied).Round(minorUnit)
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total would be negative", domain.ErrInvalidDiscount)
	}

	return &Quote{
		Lines:           lines,
		Subtotal:        subtotal,
		DiscountApplied: applied,
		Total:           total,
	}, nil
}

func discountAmount(d Discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch d.Kind {
	case DiscountNone:
		if !d.Value.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: value without kind", domain.ErrInvalidDiscount)
		}
		return decimal.Zero, nil

	case DiscountPercent:
		one := decimal.NewFromInt(1)
		if d.Value.IsNegative() || d.Value.GreaterThan(one) {
			return decimal.Zero, fmt.Errorf("%w: percent must be within [0, 1]", domain.ErrInvalidDiscount)
		}
		// Round half up to the minor unit; decimal.Round rounds half away
		// from zero, which is half up for non-negative amounts.
		return subtotal.Mul(d.Value).Round(minorUnit), nil

	case DiscountFlat:
		if d.Value.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: flat discount must not be negative", domain.ErrInvalidDiscount)
		}
		if d.Value.GreaterThan(subtotal) {
			return decimal.Zero, fmt.Errorf("%w: discount %s exceeds total %s",
				domain.ErrInvalidDiscount, d.Value.String(), subtotal.String())
		}
		return d.Value.Round(minorUnit), nil

	default:
		return decimal.Zero, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidDiscount, d.Kind)
	}
}
