// Package checkout coordinates cart, pricing, catalog stock and payment into
// one logical transaction. Stock decrements are compensated on any later
// failure, so a failed checkout is never observable in the catalog.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/pricing"
)

type Request struct {
	DeliveryMethodID string
	PaymentMethodID  string
	Discount         pricing.Discount
}

// CartService is the slice of the cart aggregate checkout consumes.
type CartService interface {
	Snapshot(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	carts     CartService
	catalog   catalog.Store
	payments  payment.Authorizer
	orders    order.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(
	carts CartService,
	store catalog.Store,
	payments payment.Authorizer,
	orders order.Repository,
	publisher events.Publisher,
) *Service {
	return &Service{
		carts:     carts,
		catalog:   store,
		payments:  payments,
		orders:    orders,
		publisher: publisher,
		now:       time.Now,
	}
}

// Checkout converts the user's cart into a PENDING order.
//
// Validation (empty cart, discount) happens before any stock mutation. Stock
// decrements are all-or-nothing: the first failing line rolls back every
// decrement already applied in this attempt, and so do payment decline and
// order persistence failure after it.
func (s *Service) Checkout(ctx context.Context, userID string, req Request) (*domain.Order, error) {
	snapshot, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	quote, err := pricing.Compute(snapshot, req.Discount)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reserveStock(ctx, quote.Lines)
	if err != nil {
		return nil, err
	}

	auth, err := s.payments.Authorize(ctx, quote.Total, req.PaymentMethodID)
	if err != nil {
		s.releaseStock(ctx, reserved)
		return nil, fmt.Errorf("payment authorization: %w", err)
	}
	if !auth.Approved {
		s.releaseStock(ctx, reserved)
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, auth.Reason)
	}

	o := s.buildOrder(userID, req, snapshot, quote, auth)
	if err := s.orders.Create(ctx, o); err != nil {
		s.releaseStock(ctx, reserved)
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// The order exists and stock is committed; an uncleared cart is an
		// inconvenience, not an inconsistency.
		log.Printf("failed to clear cart for user %s after checkout: %v", userID, err)
	}

	if err := s.publisher.PublishOrderEvent(ctx,
		events.NewOrderEvent(events.EventOrderPlaced, o, o.OrderDate)); err != nil {
		log.Printf("failed to publish order placed event for %s: %v", o.ID, err)
	}

	return o, nil
}

// reservation is the ephemeral product→quantity record held only for the
// duration of the checkout attempt.
type reservation struct {
	productID int64
	quantity  int32
}

func (s *Service) reserveStock(ctx context.Context, lines []domain.CartSnapshotItem) ([]reservation, error) {
	reserved := make([]reservation, 0, len(lines))
	for _, line := range lines {
		err := s.catalog.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err == nil {
			reserved = append(reserved, reservation{line.ProductID, line.Quantity})
			continue
		}

		s.releaseStock(ctx, reserved)
		if errors.Is(err, domain.ErrInsufficientStock) ||
			errors.Is(err, domain.ErrProductUnavailable) ||
			errors.Is(err, domain.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product %d: %v", domain.ErrStockConflict, line.ProductID, err)
		}
		return nil, fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
	}
	return reserved, nil
}

func (s *Service) releaseStock(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.catalog.RestockStock(ctx, r.productID, r.quantity); err != nil {
			log.Printf("failed to restock product %d by %d during rollback: %v",
				r.productID, r.quantity, err)
		}
	}
}

func (s *Service) buildOrder(
	userID string,
	req Request,
	snapshot *domain.CartSnapshot,
	quote *pricing.Quote,
	auth *payment.Authorization,
) *domain.Order {
	now := s.now()

	// Deep-copied lines: order items never alias cart or catalog data.
	items := make([]domain.OrderItem, len(quote.Lines))
	for i, line := range quote.Lines {
		items[i] = domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		}
	}

	return &domain.Order{
		ID:               uuid.New(),
		UserID:           userID,
		OrderDate:        now,
		Status:           domain.OrderStatusPending,
		TotalAmount:      quote.Total,
		DiscountApplied:  quote.DiscountApplied,
		Currency:         snapshot.Currency,
		DeliveryMethodID: req.DeliveryMethodID,
		PaymentMethodID:  req.PaymentMethodID,
		PaymentTxID:      auth.TransactionID,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
