package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shoppos/internal/domain"
	"shoppos/internal/repository"
)

type productLister interface {
	ListProducts(ctx context.Context, filter repository.ProductListFilter) ([]domain.Product, error)
}

// Snapshot is the locally cached product list scans are resolved against.
// It goes stale between refreshes; stock is not re-verified on commit.
type Snapshot struct {
	store productLister

	mu        sync.RWMutex
	products  []domain.Product
	refreshed time.Time
}

func NewSnapshot(store productLister) *Snapshot {
	return &Snapshot{store: store}
}

func (s *Snapshot) Refresh(ctx context.Context) error {
	products, err := s.store.ListProducts(ctx, repository.ProductListFilter{Order: repository.OrderCreated})
	if err != nil {
		return fmt.Errorf("refresh catalog snapshot: %w", err)
	}
	s.mu.Lock()
	s.products = products
	s.refreshed = time.Now()
	s.mu.Unlock()
	return nil
}

// Products returns a copy of the cached list.
func (s *Snapshot) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

func (s *Snapshot) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

func (s *Snapshot) Lookup(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Snapshot) Resolve(raw string) (domain.Product, Outcome) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.products, raw)
}

// InStock lists cached products with positive stock, in cache order.
func (s *Snapshot) InStock() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Quantity > 0 {
			out = append(out, p)
		}
	}
	return out
}
