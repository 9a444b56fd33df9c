package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/events"
)

// Service owns the order lifecycle. Status only moves along the legal edges of
// the state machine; requesting the current status again is a no-op.
type Service struct {
	repo      Repository
	catalog   catalog.Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, store catalog.Store, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		catalog:   store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Transition moves the order to target. Cancelling a confirmed order releases
// its stock back to the catalog; delivery stamps the actual delivery date.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target domain.OrderStatus) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.Status == target {
		return o, nil // idempotent re-request
	}

	if !o.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalStateTransition, o.Status, target)
	}

	prev := o.Status
	now := s.now()
	o.Status = target
	o.UpdatedAt = now
	if target == domain.OrderStatusDelivered {
		o.ActualDeliveryDate = &now
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	// Stock was decremented at checkout; a cancellation after confirmation is
	// the one place inventory moves backward. Restock runs only once CANCELLED
	// is durable: a failed update retried later must not return stock twice,
	// and the retry sees CANCELLED as a no-op.
	if target == domain.OrderStatusCancelled && prev == domain.OrderStatusConfirmed {
		s.restock(ctx, o)
	}

	if err := s.publisher.PublishOrderEvent(ctx,
		events.NewOrderEvent(events.EventOrderStatusChanged, o, now)); err != nil {
		log.Printf("failed to publish status change for order %s: %v", o.ID, err)
	}

	return o, nil
}

func (s *Service) restock(ctx context.Context, o *domain.Order) {
	for _, it := range o.Items {
		if err := s.catalog.RestockStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("failed to restock product %d for cancelled order %s: %v",
				it.ProductID, o.ID, err)
		}
	}
}
