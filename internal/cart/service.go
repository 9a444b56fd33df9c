package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cart/cache"
	"storefront/internal/catalog"
	"storefront/internal/domain"
)

// Service owns the cart aggregate: one line per product, quantities validated
// against live catalog stock, snapshot priced from the catalog at call time.
type Service struct {
	repo     Repository
	cache    cache.CartCache
	catalog  catalog.Store
	currency string
	now      func() time.Time
	sfg      singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, c cache.CartCache, store catalog.Store, currency string) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		catalog:  store,
		currency: currency,
		now:      time.Now,
	}
}

// Get returns the user's cart, an empty cart if none exists yet. Carts are
// created lazily on the first AddItem.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		c, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, domain.ErrCartNotFound) {
			return s.emptyCart(userID), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, c); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem appends a line, or merges into an existing line for the same
// product. A merge that would exceed current stock is rejected; the existing
// line is never reduced.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64, qty int32) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	p, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if line := c.Find(productID); line != nil {
		merged := line.Quantity + qty
		if merged > p.Stock {
			return nil, fmt.Errorf("%w: product %d has %d in stock, cart would hold %d",
				domain.ErrInsufficientStock, productID, p.Stock, merged)
		}
		line.Quantity = merged
		line.AddedAt = now
	} else {
		if qty > p.Stock {
			return nil, fmt.Errorf("%w: product %d has %d in stock, requested %d",
				domain.ErrProductUnavailable, productID, p.Stock, qty)
		}
		c.Items = append(c.Items, domain.CartItem{
			ProductID:         productID,
			Quantity:          qty,
			UnitPriceSnapshot: p.Price,
			AddedAt:           now,
		})
	}

	return s.persist(ctx, c)
}

// UpdateItem sets a line's quantity. Zero removes the line; a product not yet
// in the cart is upserted (last writer wins per product).
func (s *Service) UpdateItem(ctx context.Context, userID string, productID int64, qty int32) (*domain.Cart, error) {
	if qty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	p, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, fmt.Errorf("%w: product %d has %d in stock, requested %d",
			domain.ErrInsufficientStock, productID, p.Stock, qty)
	}

	c, err := s.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}

	if line := c.Find(productID); line != nil {
		line.Quantity = qty
		line.AddedAt = s.now()
	} else {
		c.Items = append(c.Items, domain.CartItem{
			ProductID:         productID,
			Quantity:          qty,
			UnitPriceSnapshot: p.Price,
			AddedAt:           s.now(),
		})
	}

	return s.persist(ctx, c)
}

// RemoveItem drops a line. Removing an absent product is a no-op, and removing
// the last line leaves an empty but valid cart.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	c, err := s.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}

	if c.Find(productID) == nil {
		return c, nil
	}

	kept := make([]domain.CartItem, 0, len(c.Items)-1)
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	return s.persist(ctx, c)
}

// Clear empties the cart after a successful checkout. The cart document stays.
func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.loadOrEmpty(ctx, userID)
	if err != nil {
		return err
	}

	c.Items = []domain.CartItem{}
	_, err = s.persist(ctx, c)
	return err
}

// Snapshot returns the immutable priced view checkout operates on. Unit prices
// are re-read from the catalog: per-item snapshots taken on add may be stale.
func (s *Service) Snapshot(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	c, err := s.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.CartSnapshot{
		UserID:     userID,
		Items:      make([]domain.CartSnapshotItem, 0, len(c.Items)),
		Currency:   s.currency,
		CapturedAt: s.now(),
	}

	for _, it := range c.Items {
		p, err := s.lookupProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		line := domain.CartSnapshotItem{
			ProductID:   it.ProductID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
		}
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity))
		snapshot.Items = append(snapshot.Items, line)
		snapshot.Subtotal = snapshot.Subtotal.Add(line.Subtotal)
		snapshot.TotalItems += it.Quantity
	}

	return snapshot, nil
}

func (s *Service) lookupProduct(ctx context.Context, productID int64) (*catalog.Product, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("%w: product %d", domain.ErrProductUnavailable, productID)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable {
		return nil, fmt.Errorf("%w: product %d is inactive", domain.ErrProductUnavailable, productID)
	}
	return p, nil
}

func (s *Service) loadOrEmpty(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return s.emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) emptyCart(userID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) persist(ctx context.Context, c *domain.Cart) (*domain.Cart, error) {
	c.UpdatedAt = s.now()
	if err := s.repo.UpsertCart(ctx, c); err != nil {
		log.Printf("repo upsert cart error: %v", err)
		return nil, err
	}

	s.invalidateCache(c.UserID)
	return c, nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
