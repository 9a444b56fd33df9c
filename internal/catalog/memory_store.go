package catalog

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/domain"
)

// MemoryStore implements Store with in-memory storage. The single mutex makes
// check-then-decrement one critical section, which is what keeps concurrent
// checkouts from interleaving between the check and the write.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*Product),
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, productID int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[productID]
	if !exists {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DecrementStock(_ context.Context, productID int64, qty int32) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return domain.ErrProductNotFound
	}
	if !p.IsAvailable {
		return domain.ErrProductUnavailable
	}
	if p.Stock < qty {
		return fmt.Errorf("%w: product %d has %d, requested %d",
			domain.ErrInsufficientStock, productID, p.Stock, qty)
	}

	p.Stock -= qty
	return nil
}

func (s *MemoryStore) RestockStock(_ context.Context, productID int64, qty int32) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return domain.ErrProductNotFound
	}

	p.Stock += qty
	return nil
}

func (s *MemoryStore) SetStock(_ context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *product
	s.products[product.ID] = &cp
	return nil
}
